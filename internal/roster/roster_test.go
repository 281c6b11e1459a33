package roster

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStudentsMissingDirIsEmpty(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "does-not-exist"))
	students, err := r.Students()
	if err != nil {
		t.Fatal(err)
	}
	if len(students) != 0 {
		t.Errorf("students = %v, want none", students)
	}
}

func TestStudentsCountsImagesPerSubject(t *testing.T) {
	dir := t.TempDir()
	an := filepath.Join(dir, "An")
	if err := os.MkdirAll(an, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"1.jpg", "2.JPG", "3.png", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(an, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Loose files next to subject folders are ignored.
	if err := os.WriteFile(filepath.Join(dir, "stray.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(dir)
	students, err := r.Students()
	if err != nil {
		t.Fatal(err)
	}
	if len(students) != 1 {
		t.Fatalf("students = %d, want 1", len(students))
	}
	if students[0].Name != "An" || students[0].ImageCount != 3 {
		t.Errorf("student = %+v", students[0])
	}
	if students[0].LastModified.IsZero() {
		t.Error("lastModified not set")
	}
}
