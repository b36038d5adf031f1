package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
	"github.com/custodia-labs/apiforge/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed prompts/*.txt
var promptFS embed.FS

// defaultPrompts holds the built-in prompts keyed by name.
var defaultPrompts = loadDefaults()

func loadDefaults() map[string]string {
	entries, err := fs.ReadDir(promptFS, "prompts")
	if err != nil {
		panic(fmt.Sprintf("read embedded prompts: %v", err))
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := promptFS.ReadFile(path.Join("prompts", e.Name()))
		if err != nil {
			panic(fmt.Sprintf("read embedded prompt %s: %v", e.Name(), err))
		}
		out[strings.TrimSuffix(e.Name(), ".txt")] = strings.TrimSpace(string(data))
	}
	return out
}

const promptsReadme = "# apiforge prompts\n\n" +
	"Each `<name>.txt` file overrides the built-in prompt of that name:\n\n" +
	"- `requirements.txt` lists the requirements of a section block\n" +
	"- `collect.txt` picks the headings that document a requirement\n" +
	"- `standardize.txt` rewrites collected text as an endpoint description\n" +
	"- `generate.txt` writes one JSON test case\n\n" +
	"Delete a file to return to the built-in prompt. `generate.txt` must keep exactly one `%s`,\n" +
	"which receives the output language; a file without it is ignored.\n"

// PromptStore serves prompts from a directory of user-editable files, with
// the built-in prompts as fallback. The directory is seeded with the
// defaults on first use, so the constructor does no I/O.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a prompt store over dir. An empty dir means
// ~/.apiforge/prompts.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home directory: %w", err)
		}
		dir = filepath.Join(home, defaultDirName, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Load returns the prompt called name. A file that is missing, unreadable
// or invalid yields the built-in prompt; only unknown names fail.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		logger.Debug("prompts: %v", s.seedErr)
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.read(name)
	if err != nil {
		def, known := defaultPrompts[name]
		if !known {
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("prompts: %v, using built-in %s", err, name)
		}
		prompt = def
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached prompts so edits on disk are picked up.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if err := validatePrompt(name, prompt); err != nil {
		return "", err
	}
	return prompt, nil
}

// validatePrompt checks the placeholders a prompt is formatted with.
func validatePrompt(name, prompt string) error {
	if prompt == "" {
		return fmt.Errorf("%s.txt is empty", name)
	}
	if name == driven.PromptGenerate && strings.Count(prompt, "%s") != 1 {
		return fmt.Errorf("%s.txt needs exactly one %%s for the language", name)
	}
	return nil
}

// seed writes every built-in prompt that has no file yet, plus a README.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	files := map[string]string{"README.md": promptsReadme}
	for name, prompt := range defaultPrompts {
		files[name+".txt"] = prompt + "\n"
	}
	for file, content := range files {
		p := filepath.Join(s.dir, file)
		if _, err := os.Stat(p); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(p, []byte(content), 0600); err != nil {
			s.seedErr = fmt.Errorf("write %s: %w", file, err)
			return
		}
	}
}
