package trial

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mocap-align/internal/fsutil"
	"github.com/banshee-data/mocap-align/internal/monitoring"
	"github.com/banshee-data/mocap-align/internal/table"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		want Role
	}{
		{"trial1_trakstar_final.csv", RoleSecondary},
		{"trial1_trakstar_raw.csv", RoleIgnored},
		{"trial1_raven.csv", RolePrimary},
		{"trial1_frames.csv", RoleIgnored},
		{"Trial1_TrakStar_Final.CSV", RoleSecondary},
		{"trial1_FRAMES_trakstar_final.csv", RoleIgnored},
		{"trial1_raven.txt", RoleIgnored},
		{"trial1_raven", RoleIgnored},
		{"notes.csv", RolePrimary},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.name), tc.name)
	}
}

func TestRoleString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "primary", RolePrimary.String())
	assert.Equal(t, "secondary", RoleSecondary.String())
	assert.Equal(t, "ignored", RoleIgnored.String())
}

func newTrialFS(t *testing.T, dir string, files ...string) *fsutil.MemoryFileSystem {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll(dir, 0755))
	for _, f := range files {
		require.NoError(t, mfs.WriteFile(dir+"/"+f, []byte("a\n1\n"), 0644))
	}
	return mfs
}

func TestLocate(t *testing.T) {
	t.Parallel()

	mfs := newTrialFS(t, "/data/T01",
		"T01_frames.csv", "T01_raven.csv", "T01_trakstar_final.csv", "T01_trakstar_raw.csv")

	src, err := Locate(mfs, "/data/T01")
	require.NoError(t, err)
	assert.Equal(t, "/data/T01/T01_raven.csv", src.Primary)
	assert.Equal(t, "/data/T01/T01_trakstar_final.csv", src.Secondary)
	assert.Empty(t, src.Conflicts)
	assert.True(t, src.Complete())
}

func TestLocate_MissingRoles(t *testing.T) {
	t.Parallel()

	mfs := newTrialFS(t, "/data/T02", "T02_trakstar_raw.csv", "T02_frames.csv")

	src, err := Locate(mfs, "/data/T02")
	require.NoError(t, err)
	assert.Empty(t, src.Primary)
	assert.Empty(t, src.Secondary)
	assert.False(t, src.Complete())
}

func TestLocate_IgnoresSubdirectories(t *testing.T) {
	t.Parallel()

	mfs := newTrialFS(t, "/data/T03", "T03_trakstar_final.csv")
	require.NoError(t, mfs.MkdirAll("/data/T03/old_raven.csv", 0755))

	src, err := Locate(mfs, "/data/T03")
	require.NoError(t, err)
	assert.Empty(t, src.Primary)
	assert.Equal(t, "/data/T03/T03_trakstar_final.csv", src.Secondary)
}

func TestLocate_LastMatchWinsAndReportsConflicts(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()
	var rec monitoring.Recorder
	monitoring.SetLogger(rec.Logf)

	mfs := newTrialFS(t, "/data/T04",
		"a_raven.csv", "b_raven.csv", "T04_trakstar_final.csv")

	src, err := Locate(mfs, "/data/T04")
	require.NoError(t, err)
	assert.Equal(t, "/data/T04/b_raven.csv", src.Primary)
	assert.Equal(t, []string{"/data/T04/a_raven.csv"}, src.Conflicts)
	assert.True(t, rec.Contains("ambiguous"))
}

func TestLocate_MissingFolder(t *testing.T) {
	t.Parallel()

	_, err := Locate(fsutil.NewMemoryFileSystem(), "/nowhere")
	assert.Error(t, err)
}

func mustTable(t *testing.T, csv string) *table.Table {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return tbl
}

func TestResolveTimeColumn(t *testing.T) {
	t.Parallel()

	tbl := mustTable(t, "Frame,Raven True frame #,Other True frame #,x\n1,2,3,4\n")
	col, ok := ResolveTimeColumn(tbl)
	require.True(t, ok)
	assert.Equal(t, "Raven True frame #", col)

	_, ok = ResolveTimeColumn(mustTable(t, "frame,x\n1,2\n"))
	assert.False(t, ok)

	// The marker is case-sensitive.
	_, ok = ResolveTimeColumn(mustTable(t, "true frame #,x\n1,2\n"))
	assert.False(t, ok)
}

func TestResolveFrameColumn(t *testing.T) {
	t.Parallel()

	col, ok := ResolveFrameColumn(mustTable(t, "True frame #,FRAME,x\n1,2,3\n"))
	require.True(t, ok)
	assert.Equal(t, "FRAME", col, "exact match beats substring match")

	col, ok = ResolveFrameColumn(mustTable(t, "x,True frame #,Frame idx\n1,2,3\n"))
	require.True(t, ok)
	assert.Equal(t, "True frame #", col)

	_, ok = ResolveFrameColumn(mustTable(t, "x,y\n1,2\n"))
	assert.False(t, ok)
}

func TestIsFrameLike(t *testing.T) {
	t.Parallel()

	assert.True(t, IsFrameLike("True frame #"))
	assert.True(t, IsFrameLike("Frames"))
	assert.False(t, IsFrameLike("x"))
}
