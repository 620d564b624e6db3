package reports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRoundTrip(t *testing.T) {
	engine := newTestEngine(newTestStore())

	def := &ReportDefinition{
		ID:          "original-id",
		Name:        "Contacts",
		Description: "All contacts",
		Model:       "contact",
		Fields: []*FieldSpec{
			{Sequence: 1, Name: "name", Label: "Name", Type: Text, Visible: true},
			{Sequence: 2, Name: "salary", Type: Currency, Visible: true, DecimalPlaces: 0, ThousandsSeparator: true},
			{Sequence: 3, Name: "age", Type: Integer, Visible: false, Aggregation: AggAvg, Width: 12},
		},
		Filters: []*FilterSpec{
			{Sequence: 1, Name: "Adults", Field: "age", Operator: OpGreaterOrEqual, Value: "18", Source: SourceStatic, Active: true},
			{Sequence: 2, Field: "dept", Operator: OpIn, Values: []string{"A", "B"}, Active: false},
		},
		Groups: []*GroupSpec{
			{Sequence: 1, Field: "dept", Label: "Department", ShowTotals: true},
		},
		Sorts: []*SortSpec{
			{Sequence: 1, Field: "name", Direction: SortAsc},
			{Sequence: 2, Field: "age", Direction: SortDesc},
		},
	}

	data, err := ExportSettings(def)
	require.NoError(t, err)

	got, err := engine.ImportSettings(context.Background(), data)
	require.NoError(t, err)

	// the id is regenerated, everything else survives
	assert.NotEqual(t, def.ID, got.ID)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, def.Name, got.Name)
	assert.Equal(t, def.Description, got.Description)
	assert.Equal(t, def.Model, got.Model)

	require.Len(t, got.Fields, 3)
	assert.Equal(t, "name", got.Fields[0].Name)
	assert.Equal(t, "Name", got.Fields[0].Label)
	assert.Equal(t, Text, got.Fields[0].Type)
	assert.True(t, got.Fields[0].Visible)
	assert.Equal(t, Currency, got.Fields[1].Type)
	assert.Equal(t, 0, got.Fields[1].DecimalPlaces)
	assert.True(t, got.Fields[1].ThousandsSeparator)
	assert.False(t, got.Fields[2].Visible)
	assert.Equal(t, AggAvg, got.Fields[2].Aggregation)
	assert.Equal(t, 12, got.Fields[2].Width)

	require.Len(t, got.Filters, 2)
	assert.Equal(t, "Adults", got.Filters[0].Name)
	assert.Equal(t, OpGreaterOrEqual, got.Filters[0].Operator)
	assert.Equal(t, "18", got.Filters[0].Value)
	assert.True(t, got.Filters[0].Active)
	assert.Equal(t, []string{"A", "B"}, got.Filters[1].Values)
	assert.False(t, got.Filters[1].Active)

	require.Len(t, got.Groups, 1)
	assert.Equal(t, "dept", got.Groups[0].Field)
	assert.True(t, got.Groups[0].ShowTotals)

	require.Len(t, got.Sorts, 2)
	assert.Equal(t, SortAsc, got.Sorts[0].Direction)
	assert.Equal(t, SortDesc, got.Sorts[1].Direction)
}

func TestSettingsRoundTripKeepsSequenceOrder(t *testing.T) {
	engine := newTestEngine(newTestStore())

	// declaration order disagrees with sequence order on purpose
	def := &ReportDefinition{
		Name:  "Shuffled",
		Model: "contact",
		Fields: []*FieldSpec{
			{Sequence: 2, Name: "age", Type: Integer, Visible: true},
			{Sequence: 1, Name: "name", Type: Text, Visible: true},
		},
		Filters: []*FilterSpec{
			{Sequence: 2, Name: "Second", Field: "active", Operator: OpEquals, Value: "true", Active: true},
			{Sequence: 1, Name: "First", Field: "age", Operator: OpGreater, Value: "18", Active: true},
		},
		Sorts: []*SortSpec{
			{Sequence: 2, Field: "age", Direction: SortDesc},
			{Sequence: 1, Field: "name", Direction: SortAsc},
		},
	}

	data, err := ExportSettings(def)
	require.NoError(t, err)
	got, err := engine.ImportSettings(context.Background(), data)
	require.NoError(t, err)

	visible := got.VisibleFields()
	require.Len(t, visible, 2)
	assert.Equal(t, "name", visible[0].Name)
	assert.Equal(t, "age", visible[1].Name)

	require.Len(t, got.Filters, 2)
	assert.Equal(t, "First", got.Filters[0].Name)
	assert.Equal(t, "Second", got.Filters[1].Name)

	keys := BuildOrder(got.Sorts)
	assert.Equal(t, []SortKey{{Field: "name"}, {Field: "age", Desc: true}}, keys)
}

func TestImportSettingsDefaults(t *testing.T) {
	engine := newTestEngine(newTestStore())

	data := []byte(`{
		"name": "Minimal",
		"model": "contact",
		"fields": [{"name": "name", "type": "text"}],
		"filters": [{"field": "age", "value": "30"}],
		"sorts": [{"field": "name", "direction": "sideways"}]
	}`)

	got, err := engine.ImportSettings(context.Background(), data)
	require.NoError(t, err)

	require.Len(t, got.Fields, 1)
	assert.True(t, got.Fields[0].Visible)
	assert.Equal(t, AggNone, got.Fields[0].Aggregation)
	assert.Equal(t, 2, got.Fields[0].DecimalPlaces)
	assert.Equal(t, 1, got.Fields[0].Sequence)

	require.Len(t, got.Filters, 1)
	assert.Equal(t, OpEquals, got.Filters[0].Operator)
	assert.Equal(t, SourceStatic, got.Filters[0].Source)
	assert.True(t, got.Filters[0].Active)
	assert.Equal(t, "Filter 1", got.Filters[0].Name)

	require.Len(t, got.Sorts, 1)
	assert.Equal(t, SortAsc, got.Sorts[0].Direction)
}

func TestImportSettingsFormatAliases(t *testing.T) {
	engine := newTestEngine(newTestStore())

	data := []byte(`{
		"name": "Aliases",
		"model": "contact",
		"fields": [
			{"name": "age", "format": "int"},
			{"name": "salary", "format": "monetary"},
			{"name": "company", "format": "many2one"}
		]
	}`)

	got, err := engine.ImportSettings(context.Background(), data)
	require.NoError(t, err)

	require.Len(t, got.Fields, 3)
	assert.Equal(t, Integer, got.Fields[0].Type)
	assert.Equal(t, Currency, got.Fields[1].Type)
	assert.Equal(t, Relation, got.Fields[2].Type)
}

func TestImportSettingsValidation(t *testing.T) {
	engine := newTestEngine(newTestStore())
	ctx := context.Background()

	cases := []struct {
		name string
		data string
	}{
		{"bad json", `{not json`},
		{"missing name", `{"model": "contact", "fields": [{"name": "name"}]}`},
		{"missing model", `{"name": "X", "fields": [{"name": "name"}]}`},
		{"no fields", `{"name": "X", "model": "contact", "fields": []}`},
		{"unknown model", `{"name": "X", "model": "vanished", "fields": [{"name": "name"}]}`},
		{"unknown field", `{"name": "X", "model": "contact", "fields": [{"name": "ghost"}]}`},
	}
	for _, tc := range cases {
		_, err := engine.ImportSettings(ctx, []byte(tc.data))
		require.Error(t, err, tc.name)
		assert.True(t, IsConfigurationError(err), tc.name)
	}
}

func TestImportSettingsPinsFilterTypes(t *testing.T) {
	engine := newTestEngine(newTestStore())

	data := []byte(`{
		"name": "Typed",
		"model": "contact",
		"fields": [{"name": "name", "type": "text"}],
		"filters": [{"field": "age", "operator": ">", "value": "18"}]
	}`)

	got, err := engine.ImportSettings(context.Background(), data)
	require.NoError(t, err)

	domain := engine.BuildDomain(context.Background(), got, nil)
	require.Len(t, domain, 1)
	assert.Equal(t, int64(18), domain[0].Value)
}
