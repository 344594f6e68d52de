package intake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"MudaBot/entity"
)

func TestParseMovingDate(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"slash layout", "15/10/2026", "2026-10-15", true},
		{"dash layout", "15-10-2026", "2026-10-15", true},
		{"iso layout", "2027-01-05", "2027-01-05", true},
		{"two digit year", "15/10/27", "2027-10-15", true},
		{"leap day on a leap year", "29/02/2028", "2028-02-29", true},
		{"same calendar day as now", "29/08/2026", "2026-08-29", true},
		{"skip keyword", "pular", "", true},
		{"skip phrase with accent", "Não sei", "", true},
		{"skip keyword uppercase", "PULAR", "", true},
		{"day before now", "28/08/2026", "", false},
		{"past year", "15/10/2020", "", false},
		{"nonexistent day", "31/04/2027", "", false},
		{"leap day on a non leap year", "29/02/2027", "", false},
		{"free text", "mês que vem", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMovingDate(tt.text, now)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("ana@exemplo.com"))
	assert.True(t, ValidEmail("  joao.silva@empresa.com.br "))
	assert.False(t, ValidEmail("ana@exemplo"))
	assert.False(t, ValidEmail("exemplo.com"))
	assert.False(t, ValidEmail("ana@"))
	assert.False(t, ValidEmail(""))
}

func TestMatchOption(t *testing.T) {
	ids := sectionOptionIDs(propertySections)

	t.Run("verbatim id", func(t *testing.T) {
		got, ok := MatchOption("apartamento", ids)
		assert.True(t, ok)
		assert.Equal(t, PropertyApartment, got)
	})

	t.Run("case and accent insensitive", func(t *testing.T) {
		got, ok := MatchOption("  APARTAMENTO ", ids)
		assert.True(t, ok)
		assert.Equal(t, PropertyApartment, got)
	})

	t.Run("ordinal", func(t *testing.T) {
		got, ok := MatchOption("2", ids)
		assert.True(t, ok)
		assert.Equal(t, PropertyHouse, got)
	})

	t.Run("ordinal out of range", func(t *testing.T) {
		_, ok := MatchOption("5", ids)
		assert.False(t, ok)
	})

	t.Run("unknown option", func(t *testing.T) {
		_, ok := MatchOption("cobertura", ids)
		assert.False(t, ok)
	})

	t.Run("empty", func(t *testing.T) {
		_, ok := MatchOption("   ", ids)
		assert.False(t, ok)
	})
}

func TestMatchYesNo(t *testing.T) {
	tests := []struct {
		text  string
		value bool
		ok    bool
	}{
		{"sim", true, true},
		{"Sim", true, true},
		{"s", true, true},
		{"1", true, true},
		{"yes", true, true},
		{"não", false, true},
		{"nao", false, true},
		{"n", false, true},
		{"2", false, true},
		{"talvez", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			value, ok := MatchYesNo(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestNextStage(t *testing.T) {
	t.Run("main path order", func(t *testing.T) {
		assert.Equal(t, StageDestination, NextStage(StageOrigin, entity.TripFacts{}))
		assert.Equal(t, StagePropertyType, NextStage(StageDestination, entity.TripFacts{}))
		assert.Equal(t, StageDone, NextStage(StageItemListText, entity.TripFacts{}))
	})

	t.Run("item list declined skips to done", func(t *testing.T) {
		assert.Equal(t, StageDone, NextStage(StageWantsItemList, entity.TripFacts{WantsItemList: false}))
	})

	t.Run("item list accepted goes to free text", func(t *testing.T) {
		assert.Equal(t, StageItemListText, NextStage(StageWantsItemList, entity.TripFacts{WantsItemList: true}))
	})
}
