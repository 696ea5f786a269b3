package catalog

// DefaultIcon is used for any icon name outside the known set.
const DefaultIcon = "Globe"

var knownIcons = map[string]struct{}{
	"Calculator":    {},
	"PlusCircle":    {},
	"BarChart3":     {},
	"Users":         {},
	"Mail":          {},
	"FileText":      {},
	"Settings":      {},
	"Cloud":         {},
	"Database":      {},
	"Shield":        {},
	"CreditCard":    {},
	"MessageSquare": {},
	DefaultIcon:     {},
}

// Icon maps a tool's icon name onto the set the dashboard can render.
func Icon(name string) string {
	if _, ok := knownIcons[name]; ok {
		return name
	}
	return DefaultIcon
}
