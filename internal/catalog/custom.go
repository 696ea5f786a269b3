package catalog

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	customIDPrefix           = "custom-"
	defaultCustomDescription = "Ferramenta personalizada adicionada pelo usuário."
	placeholderImage         = "https://placehold.co/600x400/1e293b/FFF?text="
)

// NewCustomTool builds the card for a tool a user added by hand. Custom
// tools are always active iframes listed under every category.
func NewCustomTool(name, rawURL, description string) (Tool, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if description == "" {
		description = defaultCustomDescription
	}

	t := Tool{
		ID:          customIDPrefix + uuid.NewString(),
		Name:        name,
		Description: description,
		URL:         NormalizeURL(rawURL),
		Icon:        DefaultIcon,
		Image:       placeholderImage + url.QueryEscape(initials(name)),
		Category:    CategoryAll,
		Type:        TypeIframe,
		Status:      StatusActive,
	}
	if err := t.Validate(); err != nil {
		return Tool{}, err
	}
	return t, nil
}

// IsCustom reports whether id was minted by NewCustomTool.
func IsCustom(id string) bool { return strings.HasPrefix(id, customIDPrefix) }

func initials(name string) string {
	r := []rune(name)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}
