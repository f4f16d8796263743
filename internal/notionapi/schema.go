package notionapi

import "fmt"

// Property is the raw Notion database property, carrying only the
// kind-specific fields the annotation uses.
type Property struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Number      *NumberConfig   `json:"number,omitempty"`
	Select      *OptionsConfig  `json:"select,omitempty"`
	MultiSelect *OptionsConfig  `json:"multi_select,omitempty"`
	Status      *OptionsConfig  `json:"status,omitempty"`
	Formula     *FormulaConfig  `json:"formula,omitempty"`
	Relation    *RelationConfig `json:"relation,omitempty"`
	Rollup      *RollupConfig   `json:"rollup,omitempty"`
}

type NumberConfig struct {
	Format string `json:"format"`
}

type OptionsConfig struct {
	Options []Option `json:"options"`
}

type Option struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type FormulaConfig struct {
	Expression string `json:"expression"`
}

type RelationConfig struct {
	DatabaseID string `json:"database_id"`
}

type RollupConfig struct {
	Function string `json:"function"`
}

// AnnotatedProperty is a property decorated with display metadata for the
// schema picker UI.
type AnnotatedProperty struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	ID          string            `json:"id"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon"`
	BgColor     string            `json:"bgColor"`
	Format      string            `json:"format,omitempty"`
	Options     []AnnotatedOption `json:"options,omitempty"`
	Expression  string            `json:"expression,omitempty"`
	DatabaseID  string            `json:"databaseId,omitempty"`
	RollupFn    string            `json:"rollupFunction,omitempty"`
}

type AnnotatedOption struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// displayMeta is the static lookup from property kind to display metadata.
type displayMeta struct {
	description string
	icon        string
	bgColor     string
}

var propertyDisplay = map[string]displayMeta{
	"title":            {"The primary field for your database", "T", "bg-blue-50"},
	"rich_text":        {"Text content with formatting", "📝", "bg-gray-50"},
	"number":           {"Numeric value", "#", "bg-emerald-50"},
	"select":           {"Select from a list of options", "≡", "bg-purple-50"},
	"multi_select":     {"Select multiple options from a list", "≡≡", "bg-purple-50"},
	"date":             {"Date value, optionally with time", "📅", "bg-amber-50"},
	"people":           {"", "👤", "bg-pink-50"},
	"files":            {"Files and attachments", "📎", "bg-gray-50"},
	"checkbox":         {"True/false value", "☑", "bg-green-50"},
	"url":              {"Web URL", "🔗", "bg-sky-50"},
	"email":            {"Email address", "✉️", "bg-sky-50"},
	"phone_number":     {"Phone number", "📞", "bg-sky-50"},
	"formula":          {"", "𝑓x", "bg-yellow-50"},
	"relation":         {"Relation to another database", "🔄", "bg-indigo-50"},
	"rollup":           {"", "∑", "bg-orange-50"},
	"created_time":     {"", "🕒", "bg-amber-50"},
	"created_by":       {"", "👤", "bg-pink-50"},
	"last_edited_time": {"", "🕒", "bg-amber-50"},
	"last_edited_by":   {"", "👤", "bg-pink-50"},
	"status":           {"Status of the item", "🏷️", "bg-purple-50"},
}

// optionColorClasses maps Notion option colors to display classes.
var optionColorClasses = map[string]string{
	"default": "bg-gray-100 text-gray-800",
	"gray":    "bg-gray-100 text-gray-800",
	"brown":   "bg-amber-100 text-amber-800",
	"orange":  "bg-orange-100 text-orange-800",
	"yellow":  "bg-yellow-100 text-yellow-800",
	"green":   "bg-green-100 text-green-800",
	"blue":    "bg-blue-100 text-blue-800",
	"purple":  "bg-purple-100 text-purple-800",
	"pink":    "bg-pink-100 text-pink-800",
	"red":     "bg-red-100 text-red-800",
}

func colorClass(color string) string {
	if cls, ok := optionColorClasses[color]; ok {
		return cls
	}
	return optionColorClasses["default"]
}

func annotateOptions(cfg *OptionsConfig) []AnnotatedOption {
	if cfg == nil {
		return nil
	}
	out := make([]AnnotatedOption, 0, len(cfg.Options))
	for _, opt := range cfg.Options {
		out = append(out, AnnotatedOption{Name: opt.Name, Color: colorClass(opt.Color)})
	}
	return out
}

// AnnotateProperty decorates one database property with its display
// metadata and kind-specific extras.
func AnnotateProperty(name string, prop Property) AnnotatedProperty {
	out := AnnotatedProperty{
		Name: name,
		Type: prop.Type,
		ID:   prop.ID,
	}

	meta, ok := propertyDisplay[prop.Type]
	if !ok {
		out.Icon = "❓"
		out.BgColor = "bg-gray-50"
		return out
	}
	out.Description = meta.description
	out.Icon = meta.icon
	out.BgColor = meta.bgColor

	switch prop.Type {
	case "number":
		if prop.Number != nil && prop.Number.Format != "" {
			out.Description = fmt.Sprintf("Number (%s)", prop.Number.Format)
			out.Format = prop.Number.Format
		}
	case "select":
		out.Options = annotateOptions(prop.Select)
	case "multi_select":
		out.Options = annotateOptions(prop.MultiSelect)
	case "status":
		out.Options = annotateOptions(prop.Status)
	case "formula":
		if prop.Formula != nil {
			out.Description = "Formula: " + prop.Formula.Expression
			out.Expression = prop.Formula.Expression
		}
	case "relation":
		if prop.Relation != nil {
			out.DatabaseID = prop.Relation.DatabaseID
		}
	case "rollup":
		if prop.Rollup != nil {
			out.RollupFn = prop.Rollup.Function
		}
	}
	return out
}
