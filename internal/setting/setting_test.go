package setting

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bilgisen/s13core/internal/database"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "s13.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func newSetting(t *testing.T, r *Repository, name string, active bool) *models.Setting {
	t.Helper()
	st := models.NewSetting()
	st.Name = name
	st.Title = name + " site"
	st.IsActive = active
	require.NoError(t, r.Save(context.Background(), st))
	return st
}

func activeName(t *testing.T, r *Repository) string {
	t.Helper()
	st, err := r.Active(context.Background())
	require.NoError(t, err)
	return st.Name
}

func TestFirstSettingIsForcedActive(t *testing.T) {
	r := newRepo(t)
	st := newSetting(t, r, "Main", false)
	assert.True(t, st.IsActive)
	assert.Equal(t, "Main", activeName(t, r))
}

func TestSavingActiveDeactivatesOthers(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	newSetting(t, r, "Main", true)
	second := newSetting(t, r, "Summer", true)
	assert.Equal(t, "Summer", activeName(t, r))

	third := newSetting(t, r, "Winter", false)
	assert.False(t, third.IsActive)

	// Deactivating the only active setting keeps it active.
	second.IsActive = false
	require.NoError(t, r.Save(ctx, second))
	assert.True(t, second.IsActive)
	assert.Equal(t, "Summer", activeName(t, r))

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Summer", list[0].Name)
	assert.Equal(t, "Main", list[1].Name)
}

func TestDeleteKeepsOneActive(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	main := newSetting(t, r, "Main", true)

	assert.ErrorIs(t, r.Delete(ctx, main.ID), ErrActiveRequired)

	beta := newSetting(t, r, "Beta", false)
	alpha := newSetting(t, r, "Alpha", false)
	require.NoError(t, r.Delete(ctx, main.ID))

	// Alpha sorts first by title and takes over.
	assert.Equal(t, "Alpha", activeName(t, r))

	require.NoError(t, r.Delete(ctx, beta.ID))
	assert.ErrorIs(t, r.Delete(ctx, alpha.ID), ErrActiveRequired)
	assert.ErrorIs(t, r.Delete(ctx, 999), ErrActiveRequired)
}

func TestSaveValidation(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	newSetting(t, r, "Main", true)

	dup := models.NewSetting()
	dup.Name = "Main"
	assert.ErrorIs(t, r.Save(ctx, dup), ErrNameTaken)

	bad := models.NewSetting()
	bad.Name = "Bad"
	bad.NohomeContentType = "everything"
	assert.Error(t, r.Save(ctx, bad))

	assert.Error(t, r.Save(ctx, models.NewSetting()))
}

func TestActiveLoadsBlocks(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	copyright := &models.CopyrightInfo{Statement: "(c) Example", License: "MIT"}
	require.NoError(t, r.SaveCopyright(ctx, copyright))
	disclaimer := models.NewDisclaimer()
	disclaimer.Body = "No warranty."
	require.NoError(t, r.SaveDisclaimer(ctx, disclaimer))

	heavy := &models.ContactInfo{ContactName: "Zed", Weight: 5}
	light := &models.ContactInfo{ContactName: "Amy", Weight: 1}
	require.NoError(t, r.SaveContact(ctx, heavy))
	require.NoError(t, r.SaveContact(ctx, light))

	st := models.NewSetting()
	st.Name = "Main"
	st.CopyrightID = &copyright.ID
	st.DisclaimerID = &disclaimer.ID
	st.ContactIDs = []int64{heavy.ID, light.ID}
	require.NoError(t, r.Save(ctx, st))

	active, err := r.Active(ctx)
	require.NoError(t, err)
	require.NotNil(t, active.Copyright)
	assert.Equal(t, "(c) Example<br />MIT", active.Copyright.MakeStatement())
	require.NotNil(t, active.Disclaimer)
	assert.Equal(t, "No warranty.", active.Disclaimer.Body)
	require.Len(t, active.Contacts, 2)
	assert.Equal(t, "Amy", active.Contacts[0].ContactName)

	got, err := r.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{heavy.ID, light.ID}, got.ContactIDs)

	// Removing a block detaches it from the setting.
	require.NoError(t, r.DeleteCopyright(ctx, copyright.ID))
	require.NoError(t, r.DeleteContact(ctx, heavy.ID))
	active, err = r.Active(ctx)
	require.NoError(t, err)
	assert.Nil(t, active.CopyrightID)
	assert.Nil(t, active.Copyright)
	assert.Len(t, active.Contacts, 1)
}

func TestBlocksCRUD(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	c := models.NewContactInfo()
	require.NoError(t, r.SaveContact(ctx, c))
	c.Email = "juan@example.com"
	require.NoError(t, r.SaveContact(ctx, c))
	got, err := r.GetContact(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "juan@example.com", got.Email)

	d := models.NewDisclaimer()
	require.NoError(t, r.SaveDisclaimer(ctx, d))
	d.Title = "Legal"
	require.NoError(t, r.SaveDisclaimer(ctx, d))
	all, err := r.Disclaimers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Legal", all[0].Title)

	require.NoError(t, r.DeleteDisclaimer(ctx, d.ID))
	_, err = r.GetDisclaimer(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.DeleteContact(ctx, 999), ErrNotFound)
}

func TestEnsureDefault(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	st, err := r.EnsureDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Initial Settings", st.Name)
	assert.True(t, st.IsActive)

	again, err := r.EnsureDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, st.ID, again.ID)
}
