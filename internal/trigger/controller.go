package trigger

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/castlebay/notedown/internal/engine"
	"github.com/castlebay/notedown/internal/engine/transaction"
)

// Errors returned by controller operations.
var (
	// ErrNotActive indicates a commit or query on an inactive menu.
	ErrNotActive = errors.New("trigger menu is not active")

	// ErrUnknownCommand indicates a commit with an unregistered id.
	ErrUnknownCommand = errors.New("unknown command")
)

// State is the controller's lifecycle state.
type State uint8

const (
	// StateInactive means no menu is open.
	StateInactive State = iota
	// StateActive means the menu is open and tracking a query.
	StateActive
)

// maxQueryRunes bounds how far the cursor may wander past the trigger
// before the menu closes.
const maxQueryRunes = 20

// UpdateFunc observes controller state changes. query is empty while
// inactive.
type UpdateFunc func(state State, query string)

// Controller drives the slash-command menu. It observes the editor:
// typing the trigger character at a valid position opens the menu,
// subsequent edits update the query, and anything that invalidates the
// trigger region closes it.
type Controller struct {
	ed      *engine.Editor
	catalog *Catalog

	state State
	from  int // position of the trigger character
	query string

	onUpdate []UpdateFunc
}

// NewController binds a controller to an editor and catalog.
func NewController(ed *engine.Editor, catalog *Catalog) *Controller {
	return &Controller{ed: ed, catalog: catalog}
}

// Attach registers the controller as an editor observer.
func (c *Controller) Attach() {
	c.ed.OnApply(c.handle)
}

// OnUpdate registers a state-change listener.
func (c *Controller) OnUpdate(fn UpdateFunc) {
	c.onUpdate = append(c.onUpdate, fn)
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Query returns the text typed after the trigger character.
func (c *Controller) Query() string {
	return c.query
}

// Results returns the filtered, grouped commands for the current query.
func (c *Controller) Results() ([]Group, error) {
	if c.state != StateActive {
		return nil, ErrNotActive
	}
	return c.catalog.Grouped(c.query), nil
}

// Cancel closes the menu without touching the document.
func (c *Controller) Cancel() {
	if c.state == StateActive {
		c.deactivate()
	}
}

// Commit executes the command with the given id: the menu closes, the
// trigger text is deleted from the document, then the handler runs.
func (c *Controller) Commit(id string) error {
	if c.state != StateActive {
		return ErrNotActive
	}
	cmd, ok := c.catalog.Lookup(id)
	if !ok {
		return ErrUnknownCommand
	}
	from := c.from
	to := from + 1 + utf8.RuneCountInString(c.query)
	c.deactivate()

	tr := c.ed.Tx()
	if err := tr.DeleteText(from, to); err != nil {
		return err
	}
	tr.SetSelection(transaction.Cursor(from))
	if err := c.ed.Apply(tr); err != nil {
		return err
	}
	return cmd.Handler()
}

// handle processes one editor event in the current state.
func (c *Controller) handle(ev engine.ApplyEvent) {
	switch c.state {
	case StateInactive:
		if ev.TypedText == "/" && !ev.FromHistory {
			c.tryActivate(ev)
		}
	case StateActive:
		c.track(ev)
	}
}

// tryActivate opens the menu when the trigger character just landed at
// a valid position: the start of a textblock or right after whitespace.
func (c *Controller) tryActivate(ev engine.ApplyEvent) {
	if !ev.Selection.Empty() {
		return
	}
	head := ev.Selection.Head
	from := head - 1
	rp, err := transaction.Resolve(ev.Doc, from)
	if err != nil {
		return
	}
	if !c.ed.Schema().IsTextblock(rp.Parent().Type) {
		return
	}
	start := rp.Start(rp.Depth())
	if from > start {
		before := ev.Doc.TextBetween(start, from)
		r, _ := utf8.DecodeLastRuneInString(before)
		if !unicode.IsSpace(r) {
			return
		}
	}
	c.state = StateActive
	c.from = from
	c.query = ""
	c.notify()
}

// track follows edits and cursor moves while the menu is open.
func (c *Controller) track(ev engine.ApplyEvent) {
	if ev.FromHistory {
		c.deactivate()
		return
	}
	if ev.Transaction != nil {
		c.from = ev.Transaction.Mapping().Map(c.from, -1)
	}
	doc := ev.Doc
	head := ev.Selection.Head
	if !ev.Selection.Empty() || head <= c.from || head > c.from+1+maxQueryRunes {
		c.deactivate()
		return
	}
	rp, err := transaction.Resolve(doc, c.from)
	if err != nil {
		c.deactivate()
		return
	}
	if rp.End(rp.Depth()) < head {
		// Cursor left the trigger's block.
		c.deactivate()
		return
	}
	text := doc.TextBetween(c.from, head)
	if !strings.HasPrefix(text, "/") {
		// The trigger character itself was edited away.
		c.deactivate()
		return
	}
	query := text[1:]
	if strings.ContainsFunc(query, unicode.IsSpace) {
		c.deactivate()
		return
	}
	if query != c.query {
		c.query = query
		c.notify()
	}
}

func (c *Controller) deactivate() {
	c.state = StateInactive
	c.query = ""
	c.notify()
}

func (c *Controller) notify() {
	for _, fn := range c.onUpdate {
		fn(c.state, c.query)
	}
}
