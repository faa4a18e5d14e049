package testutil

import (
	"errors"
	"testing"

	"github.com/banshee-data/mocap-align/internal/fsutil"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()

	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()

	AssertError(t, errors.New("boom"))
}

func TestCSV(t *testing.T) {
	t.Parallel()

	got := CSV([]string{"True frame #", "x"}, []string{"1", "0.5"}, []string{"2", ""})
	want := "True frame #,x\n1,0.5\n2,\n"
	if got != want {
		t.Errorf("CSV() = %q, want %q", got, want)
	}
}

func TestWriteTrial(t *testing.T) {
	t.Parallel()

	mfs := fsutil.NewMemoryFileSystem()
	WriteTrial(t, mfs, "/data/T01", map[string]string{
		"T01_raven.csv":          "a\n1\n",
		"T01_trakstar_final.csv": "b\n2\n",
	})

	data, err := mfs.ReadFile("/data/T01/T01_raven.csv")
	AssertNoError(t, err)
	if string(data) != "a\n1\n" {
		t.Errorf("unexpected content %q", data)
	}
	if !fsutil.IsDir(mfs, "/data/T01") {
		t.Error("expected trial dir to exist")
	}
}
