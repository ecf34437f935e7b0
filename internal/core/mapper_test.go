package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLine(t *testing.T, header, line string) (Record, bool) {
	t.Helper()
	return MapRow(NewHeaderIndex(header), ParseLine(line))
}

func mappingJSON(t *testing.T, m *Mapping) string {
	t.Helper()
	data, err := m.MarshalJSON()
	require.NoError(t, err)
	return string(data)
}

func TestMapRow_AddressOnly(t *testing.T) {
	rec, ok := mapLine(t, "name.firstName,name.lastName,age,address.city", "John,Doe,34,Springfield")
	require.True(t, ok)

	assert.Equal(t, "John Doe", rec.Name)
	assert.Equal(t, 34, rec.Age)
	assert.Equal(t, `{"city":"Springfield"}`, mappingJSON(t, rec.Address))
	assert.Nil(t, rec.AdditionalInfo)
}

func TestMapRow_MissingComponentsRejected(t *testing.T) {
	tests := []struct {
		name   string
		header string
		line   string
	}{
		{"empty last name and age", "name.firstName,name.lastName,age", "Jane,,"},
		{"no last name column", "name.firstName,age", "Jane,30"},
		{"no age column", "name.firstName,name.lastName", "Jane,Doe"},
		{"non-numeric age", "name.firstName,name.lastName,age", "Jane,Doe,old"},
		{"short row drops age", "name.firstName,name.lastName,age", "Jane,Doe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := mapLine(t, tt.header, tt.line)
			assert.False(t, ok)
		})
	}
}

func TestMapRow_EmptyNameComponentsStillPresent(t *testing.T) {
	rec, ok := mapLine(t, "name.firstName,name.lastName,age", ",Doe,40")
	require.True(t, ok)
	assert.Equal(t, "Doe", rec.Name)

	rec, ok = mapLine(t, "name.firstName,name.lastName,age", ",,40")
	require.True(t, ok)
	assert.Equal(t, "", rec.Name)
}

func TestMapRow_Age(t *testing.T) {
	tests := []struct {
		cell string
		want int
	}{
		{"34", 34},
		{"34abc", 34},
		{"34.9", 34},
		{" 7 ", 7},
		{"-2", -2},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			rec, ok := MapRow(NewHeaderIndex("name.firstName,name.lastName,age"), []string{"A", "B", tt.cell})
			require.True(t, ok)
			assert.Equal(t, tt.want, rec.Age)
		})
	}
}

func TestMapRow_AdditionalInfo(t *testing.T) {
	header := "name.firstName,name.lastName,age,address.line1,address.geo.lat,gender,meta.source.system,active,score,note"
	line := `Ada,Lovelace,36,"12 Main St, Apt 4",51.5,female,crm,TRUE,9.5,`

	rec, ok := mapLine(t, header, line)
	require.True(t, ok)

	assert.Equal(t, "Ada Lovelace", rec.Name)
	assert.Equal(t, `{"line1":"12 Main St, Apt 4","geo":{"lat":51.5}}`, mappingJSON(t, rec.Address))
	assert.Equal(t,
		`{"gender":"female","meta":{"source":{"system":"crm"}},"active":true,"score":9.5,"note":null}`,
		mappingJSON(t, rec.AdditionalInfo))
}

func TestMapRow_ShortRowPadsWithNull(t *testing.T) {
	rec, ok := mapLine(t, "name.firstName,name.lastName,age,address.city,extra", "John,Doe,34")
	require.True(t, ok)

	assert.Equal(t, `{"city":null}`, mappingJSON(t, rec.Address))
	assert.Equal(t, `{"extra":null}`, mappingJSON(t, rec.AdditionalInfo))
}

func TestMapRow_ExtraCellsIgnored(t *testing.T) {
	rec, ok := mapLine(t, "name.firstName,name.lastName,age", "John,Doe,34,surplus,cells")
	require.True(t, ok)
	assert.Nil(t, rec.Address)
	assert.Nil(t, rec.AdditionalInfo)
}

func TestMapRow_EmptyHeaderSkipped(t *testing.T) {
	rec, ok := mapLine(t, "name.firstName,,name.lastName,age", "John,ignored,Doe,34")
	require.True(t, ok)
	assert.Equal(t, "John Doe", rec.Name)
	assert.Nil(t, rec.AdditionalInfo)
}

func TestMapRow_PathCollisionOverwrites(t *testing.T) {
	rec, ok := mapLine(t, "name.firstName,name.lastName,age,meta,meta.x", "A,B,1,flat,nested")
	require.True(t, ok)
	assert.Equal(t, `{"meta":{"x":"nested"}}`, mappingJSON(t, rec.AdditionalInfo))
}

func TestMapRow_NameComponentsStringified(t *testing.T) {
	rec, ok := mapLine(t, "name.firstName,name.lastName,age", "42,true,30")
	require.True(t, ok)
	assert.Equal(t, "42 true", rec.Name)
}
