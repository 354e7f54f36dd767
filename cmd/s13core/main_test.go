package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bilgisen/s13core/internal/auth"
	"github.com/bilgisen/s13core/internal/database"
	"github.com/bilgisen/s13core/internal/setting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "s13.db")
	t.Setenv("DATABASE_PATH", path)
	t.Setenv("MEDIA_ROOT", filepath.Join(dir, "media"))
	t.Setenv("STORAGE_BACKEND", "local")
	t.Setenv("REDIS_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_PRETTY", "false")
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	testEnv(t)
	out, err := run(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "** Database is up to date.")
}

func TestSetup(t *testing.T) {
	path := testEnv(t)
	stdin := "admin\nadmin@example.com\nhunter2\nhunter2\nMy Site\n\ngo, cms\n(c) 2024 Me\nyes\n"
	out, err := run(t, stdin, "setup")
	require.NoError(t, err)
	assert.Contains(t, out, "** Collecting initial settings values.")

	ctx := context.Background()
	db, err := database.Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	st, err := setting.NewRepository(db).Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Initial Settings", st.Name)
	assert.Equal(t, "My Site", st.Title)
	assert.Equal(t, "go, cms", st.Keywords)
	require.NotNil(t, st.Copyright)
	assert.Equal(t, ccLicense, st.Copyright.License)
	require.Len(t, st.Contacts, 1)
	assert.Equal(t, "Website Administrator", st.Contacts[0].ContactName)
	assert.Equal(t, "admin@example.com", st.Contacts[0].Email)

	u, err := auth.NewService(db).Authenticate(ctx, "admin", "hunter2")
	require.NoError(t, err)
	assert.True(t, u.IsStaff)
}

func TestSetupWithFlags(t *testing.T) {
	path := testEnv(t)
	_, err := run(t, "", "setup", "--username", "root", "--password", "pw", "--email", "",
		"--title", "Flags", "--copyright", "Mine", "--creative-commons=false")
	require.NoError(t, err)

	ctx := context.Background()
	db, err := database.Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	st, err := setting.NewRepository(db).Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Flags", st.Title)
	require.NotNil(t, st.Copyright)
	assert.Empty(t, st.Copyright.License)
}

func TestCreateUserPasswordMismatch(t *testing.T) {
	testEnv(t)
	_, err := run(t, "one\ntwo\n", "createuser", "--username", "editor", "--email", "e@example.com")
	assert.ErrorIs(t, err, auth.ErrPasswordMismatch)

	out, err := run(t, "", "createuser", "--username", "editor", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "** User editor created.")
}

func TestGetFeedUnknownLabel(t *testing.T) {
	testEnv(t)
	_, err := run(t, "", "getfeed", "nothing")
	assert.ErrorIs(t, err, errNoFeed)

	_, err = run(t, "", "getfeed", "nothing", "--process-only", "--forget")
	assert.ErrorIs(t, err, errNoFeed)

	_, err = run(t, "", "getfeed")
	assert.Error(t, err)
}

func TestPrompterRepeatsRequired(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("\n  \nanswer\n"), &out)
	got, err := p.ask("Name", true)
	require.NoError(t, err)
	assert.Equal(t, "answer", got)
	assert.Equal(t, 3, strings.Count(out.String(), "Name (required): "))

	_, err = p.ask("Other", true)
	assert.Error(t, err)

	got, err = newPrompter(strings.NewReader(""), &out).ask("Optional", false)
	require.NoError(t, err)
	assert.Empty(t, got)
}
