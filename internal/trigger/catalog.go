package trigger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Category groups commands in the menu.
type Category string

const (
	CategoryText   Category = "text"
	CategoryLists  Category = "lists"
	CategoryBlocks Category = "blocks"
	CategoryAI     Category = "ai"
)

// categoryOrder fixes the display order of groups.
var categoryOrder = []Category{CategoryText, CategoryLists, CategoryBlocks, CategoryAI}

// Command is one entry in the slash menu.
type Command struct {
	// ID uniquely identifies the command.
	ID string

	// Title is the display name matched against the query.
	Title string

	// Description is a one-line explanation shown in the menu.
	Description string

	// Category determines the menu group.
	Category Category

	// Keywords are extra terms the query matches against.
	Keywords []string

	// Handler executes the command.
	Handler func() error
}

// Group is a category's slice of a filtered result set.
type Group struct {
	Category Category
	Commands []Command
}

// Catalog holds the registered slash commands.
type Catalog struct {
	cmds []Command
	byID map[string]int
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byID: make(map[string]int)}
}

// Register adds a command. Command IDs must be unique.
func (c *Catalog) Register(cmd Command) error {
	if cmd.ID == "" {
		return fmt.Errorf("command has no id")
	}
	if _, exists := c.byID[cmd.ID]; exists {
		return fmt.Errorf("command %q already registered", cmd.ID)
	}
	c.byID[cmd.ID] = len(c.cmds)
	c.cmds = append(c.cmds, cmd)
	return nil
}

// Lookup returns the command with the given id.
func (c *Catalog) Lookup(id string) (Command, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Command{}, false
	}
	return c.cmds[i], true
}

// Commands returns all registered commands in registration order.
func (c *Catalog) Commands() []Command {
	out := make([]Command, len(c.cmds))
	copy(out, c.cmds)
	return out
}

// Filter returns the commands matching the query, best matches first.
// An empty query returns everything.
func (c *Catalog) Filter(query string) []Command {
	if query == "" {
		return c.Commands()
	}
	q := strings.ToLower(query)
	type scored struct {
		cmd  Command
		dist int
	}
	var hits []scored
	for _, cmd := range c.cmds {
		if d, ok := score(cmd, q); ok {
			hits = append(hits, scored{cmd, d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	out := make([]Command, len(hits))
	for i, h := range hits {
		out[i] = h.cmd
	}
	return out
}

// score ranks a command against a lowercased query. Substring hits in
// the title beat keyword hits beat description hits beat fuzzy matches.
func score(cmd Command, q string) (int, bool) {
	title := strings.ToLower(cmd.Title)
	if i := strings.Index(title, q); i >= 0 {
		return i, true
	}
	for _, kw := range cmd.Keywords {
		if strings.Contains(strings.ToLower(kw), q) {
			return 100, true
		}
	}
	if strings.Contains(strings.ToLower(cmd.Description), q) {
		return 150, true
	}
	if r := fuzzy.RankMatchNormalizedFold(q, cmd.Title); r >= 0 {
		return 200 + r, true
	}
	return 0, false
}

// Grouped returns the filtered commands bucketed by category in fixed
// category order. Empty groups are omitted.
func (c *Catalog) Grouped(query string) []Group {
	matched := c.Filter(query)
	byCat := make(map[Category][]Command)
	for _, cmd := range matched {
		byCat[cmd.Category] = append(byCat[cmd.Category], cmd)
	}
	var out []Group
	for _, cat := range categoryOrder {
		if cmds := byCat[cat]; len(cmds) > 0 {
			out = append(out, Group{Category: cat, Commands: cmds})
		}
	}
	return out
}
