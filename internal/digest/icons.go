package digest

import (
	_ "embed"
	"log"

	"gopkg.in/yaml.v3"
)

//go:embed icons.yaml
var iconsYAML []byte

type iconMap struct {
	Default string            `yaml:"default"`
	Icons   map[string]string `yaml:"icons"`
}

var icons iconMap

func init() {
	if err := yaml.Unmarshal(iconsYAML, &icons); err != nil {
		// The icon map is compiled in; a parse failure is a build defect.
		log.Fatalf("failed to parse embedded icon map: %v", err)
	}
	if icons.Default == "" {
		icons.Default = "📝"
	}
}

// iconFor resolves a work type to its icon. Unrecognized and unclassified
// work types get the default icon.
func iconFor(workType *string) string {
	if workType == nil {
		return icons.Default
	}
	if icon, ok := icons.Icons[*workType]; ok {
		return icon
	}
	return icons.Default
}
