package catalog_test

import (
	"testing"

	"github.com/rpggio/careplan/internal/domain/catalog"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := catalog.Default()
	require.Equal(t, 2, c.Version())

	steps := c.Steps()
	require.Len(t, steps, 12)
	require.Equal(t, catalog.SectionBasicInfo, steps[0].Key)
	require.Equal(t, catalog.SectionConsent, steps[len(steps)-1].Key)

	general, ok := c.StepFor(catalog.SectionGeneral)
	require.True(t, ok)
	require.Equal(t, 4, general.ID)

	steps[0].Name = "mutated"
	first, _ := c.Step(1)
	require.Equal(t, "Basic Information", first.Name)
}

func TestNew_Validation(t *testing.T) {
	_, err := catalog.New(1, nil, nil)
	require.ErrorIs(t, err, catalog.ErrInvalidCatalog)

	_, err = catalog.New(1, []catalog.Step{
		{ID: 2, Key: catalog.SectionBasicInfo},
		{ID: 1, Key: catalog.SectionAboutMe},
	}, nil)
	require.ErrorIs(t, err, catalog.ErrInvalidCatalog)

	_, err = catalog.New(1, []catalog.Step{
		{ID: 1, Key: catalog.SectionBasicInfo},
		{ID: 2, Key: catalog.SectionBasicInfo},
	}, nil)
	require.ErrorIs(t, err, catalog.ErrInvalidCatalog)

	_, err = catalog.New(1, []catalog.Step{{ID: 1, Key: catalog.SectionBasicInfo}},
		[]catalog.Change{{Version: 2, Position: 1, Inserted: 1, Marker: catalog.SectionBasicInfo}})
	require.ErrorIs(t, err, catalog.ErrInvalidCatalog)
}

func TestFilter_UnlockingCategoryKeepsEverything(t *testing.T) {
	c := catalog.Default()
	require.Equal(t, c.Steps(), catalog.Filter(c, catalog.CategoryChild))
}

func TestFilter_DropsConditionalStepsPreservingOrder(t *testing.T) {
	c := catalog.Default()
	for _, category := range []catalog.Category{catalog.CategoryAdult, catalog.CategoryOlderAdult, "unknown"} {
		filtered := catalog.Filter(c, category)
		require.Len(t, filtered, 10, category)

		last := 0
		for _, step := range filtered {
			require.False(t, step.Conditional(), "category %s kept %s", category, step.Key)
			require.Greater(t, step.ID, last)
			last = step.ID
		}
	}
}

func TestStepHelpers(t *testing.T) {
	steps := catalog.Filter(catalog.Default(), catalog.CategoryAdult)

	require.Equal(t, 1, catalog.First(steps))
	require.Equal(t, 0, catalog.First(nil))
	require.True(t, catalog.Contains(steps, 9))
	require.False(t, catalog.Contains(steps, 10))
	require.Equal(t, 8, catalog.IndexOf(steps, 9))
	require.Equal(t, -1, catalog.IndexOf(steps, 11))
	require.True(t, catalog.IsLast(steps, 12))
	require.False(t, catalog.IsLast(steps, 11))
	require.False(t, catalog.IsLast(nil, 1))
}

func hasSections(keys ...catalog.SectionKey) func(catalog.SectionKey) bool {
	set := map[catalog.SectionKey]bool{}
	for _, key := range keys {
		set[key] = true
	}
	return func(key catalog.SectionKey) bool { return set[key] }
}

func TestRelocateStep_LegacyShapeShiftsForward(t *testing.T) {
	step := catalog.RelocateStep(catalog.Default(), catalog.RelocateInput{
		Step:       4,
		HasSection: hasSections(catalog.SectionBasicInfo, catalog.SectionAboutMe),
		Category:   catalog.CategoryAdult,
	})
	require.Equal(t, 5, step)
}

func TestRelocateStep_ShiftedStepMissingForCategoryResets(t *testing.T) {
	c, err := catalog.New(2, []catalog.Step{
		{ID: 1, Key: catalog.SectionBasicInfo, Name: "Basic"},
		{ID: 2, Key: catalog.SectionAboutMe, Name: "About"},
		{ID: 3, Key: catalog.SectionCareTeam, Name: "Team"},
		{ID: 4, Key: catalog.SectionGeneral, Name: "General"},
		{ID: 5, Key: catalog.SectionEducation, Name: "Education", Tag: catalog.TagChildOnly},
		{ID: 6, Key: catalog.SectionConsent, Name: "Consent"},
	}, []catalog.Change{{Version: 2, Position: 4, Inserted: 1, Marker: catalog.SectionGeneral}})
	require.NoError(t, err)

	in := catalog.RelocateInput{Step: 4, HasSection: hasSections(), Category: catalog.CategoryAdult}
	require.Equal(t, 1, catalog.RelocateStep(c, in))

	in.Category = catalog.CategoryChild
	require.Equal(t, 5, catalog.RelocateStep(c, in))
}

func TestRelocateStep_CurrentShapeUnchanged(t *testing.T) {
	step := catalog.RelocateStep(catalog.Default(), catalog.RelocateInput{
		Step:       4,
		HasSection: hasSections(catalog.SectionGeneral),
		Category:   catalog.CategoryAdult,
	})
	require.Equal(t, 4, step)
}

func TestRelocateStep_BeforeInsertionUnchanged(t *testing.T) {
	step := catalog.RelocateStep(catalog.Default(), catalog.RelocateInput{
		Step:       3,
		HasSection: hasSections(),
		Category:   catalog.CategoryAdult,
	})
	require.Equal(t, 3, step)
}

func TestRelocateStep_ExplicitVersionWins(t *testing.T) {
	c := catalog.Default()

	current := catalog.RelocateStep(c, catalog.RelocateInput{
		Step:       6,
		Version:    2,
		HasSection: hasSections(),
		Category:   catalog.CategoryAdult,
	})
	require.Equal(t, 6, current)

	legacy := catalog.RelocateStep(c, catalog.RelocateInput{
		Step:       6,
		Version:    1,
		HasSection: hasSections(catalog.SectionGeneral),
		Category:   catalog.CategoryAdult,
	})
	require.Equal(t, 7, legacy)
}

func TestRelocateStep_InvalidStoredStep(t *testing.T) {
	c := catalog.Default()
	require.Equal(t, 1, catalog.RelocateStep(c, catalog.RelocateInput{Step: 0, Category: catalog.CategoryAdult}))
	require.Equal(t, 1, catalog.RelocateStep(c, catalog.RelocateInput{Step: 11, Version: 2, Category: catalog.CategoryAdult}))
	require.Equal(t, 1, catalog.RelocateStep(c, catalog.RelocateInput{Step: 40, Version: 2, Category: catalog.CategoryChild}))
}
