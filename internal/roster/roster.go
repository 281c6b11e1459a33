package roster

import (
	"os"
	"path/filepath"
	"strings"

	"classhub/internal/models"
)

// imageExtensions are the files counted per subject folder.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Roster lists known subjects from the face database directory the AI
// pipeline maintains: one folder per subject, holding enrollment
// images. The directory is owned by the pipeline and read-only here.
type Roster struct {
	facesDir string
}

// New points the roster at the face database directory.
func New(facesDir string) *Roster {
	return &Roster{facesDir: facesDir}
}

// Students enumerates subject folders. A missing directory yields an
// empty roster, not an error; unreadable subject folders are skipped.
func (r *Roster) Students() ([]models.Student, error) {
	entries, err := os.ReadDir(r.facesDir)
	if os.IsNotExist(err) {
		return []models.Student{}, nil
	}
	if err != nil {
		return nil, err
	}

	students := make([]models.Student, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(r.facesDir, entry.Name())
		images, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		count := 0
		for _, image := range images {
			if imageExtensions[strings.ToLower(filepath.Ext(image.Name()))] {
				count++
			}
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		students = append(students, models.Student{
			Name:         entry.Name(),
			ImageCount:   count,
			LastModified: info.ModTime(),
		})
	}
	return students, nil
}
