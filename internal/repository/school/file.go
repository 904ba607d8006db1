package school

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/panic-alert/internal/config"
)

// School is the descriptive metadata of a tenant, shown on reports and displays.
type School struct {
	// Name is the school name.
	Name string `yaml:"name" json:"name"`
	// Address is the street address.
	Address string `yaml:"address" json:"address"`
	// City is the city and state.
	City string `yaml:"city" json:"city"`
	// Phone is the contact phone number.
	Phone string `yaml:"phone" json:"phone"`
	// Director is the name of the school director.
	Director string `yaml:"director" json:"director"`
}

// Repository defines persistence operations for school metadata keyed by tenant id.
type Repository interface {
	Load(ctx context.Context, tenantID string) (*School, error)
	Save(ctx context.Context, tenantID string, school *School) error
	List(ctx context.Context) (map[string]School, error)
}

// FileRepository persists school metadata to a YAML file on disk.
type FileRepository struct {
	// path is the filesystem location of the YAML file.
	path string
	// mu protects concurrent access to the file.
	mu sync.Mutex
}

// ErrNotFound is returned when no metadata exists for the tenant.
var ErrNotFound = errors.New("school not found")

// errSchoolRequired is returned by Save for a nil school.
var errSchoolRequired = errors.New("school is required")

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the metadata of one tenant.
func (r *FileRepository) Load(_ context.Context, tenantID string) (*School, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	schools, err := r.readAll()
	if err != nil {
		return nil, err
	}

	school, ok := schools[tenantID]
	if !ok {
		return nil, ErrNotFound
	}

	return &school, nil
}

// List returns every stored school keyed by tenant id.
func (r *FileRepository) List(_ context.Context) (map[string]School, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.readAll()
}

// Save writes the metadata of one tenant, keeping the others.
func (r *FileRepository) Save(_ context.Context, tenantID string, school *School) error {
	if school == nil {
		return errSchoolRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	schools, err := r.readAll()
	if err != nil {
		return err
	}

	schools[tenantID] = *school

	data, err := yaml.Marshal(schools)
	if err != nil {
		return fmt.Errorf("encode schools: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write schools file: %w", err)
	}

	return nil
}

// readAll decodes the whole file. A missing file is an empty set. Callers hold mu.
func (r *FileRepository) readAll() (map[string]School, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]School), nil
		}

		return nil, fmt.Errorf("read schools file: %w", err)
	}

	schools := make(map[string]School)
	if err = yaml.Unmarshal(contents, &schools); err != nil {
		return nil, fmt.Errorf("decode schools file: %w", err)
	}

	return schools, nil
}
