package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name        string
		projectCode string
		tags        []string
		want        string
	}{
		{
			name:        "NoTags",
			projectCode: "acme",
			tags:        nil,
			want:        "projectCode == 'acme'",
		},
		{
			name:        "EmptyTags",
			projectCode: "acme",
			tags:        []string{},
			want:        "projectCode == 'acme'",
		},
		{
			name:        "TagsOrderPreserved",
			projectCode: "acme",
			tags:        []string{"core", "api"},
			want:        "projectCode == 'acme' && tags IN ['core', 'api']",
		},
		{
			name:        "SingleTag",
			projectCode: "acme",
			tags:        []string{"core"},
			want:        "projectCode == 'acme' && tags IN ['core']",
		},
		{
			name:        "QuotesEscaped",
			projectCode: "pro'j",
			tags:        []string{"a'b"},
			want:        "projectCode == 'pro''j' && tags IN ['a''b']",
		},
		{
			name:        "BlankTagsIgnored",
			projectCode: "acme",
			tags:        []string{"", "  "},
			want:        "projectCode == 'acme'",
		},
		{
			name:        "BlankTagsFilteredAmongRealOnes",
			projectCode: "acme",
			tags:        []string{"", "core", "  ", "api"},
			want:        "projectCode == 'acme' && tags IN ['core', 'api']",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildFilter(tt.projectCode, tt.tags))
		})
	}
}

func TestMarkerFilter(t *testing.T) {
	assert.Equal(t, "type == 'marker' && projectCode == 'acme'", markerFilter("acme"))
	assert.Equal(t, "type == 'marker' && projectCode == 'pro''j'", markerFilter("pro'j"))
}
