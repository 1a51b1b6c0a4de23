// Package prompts loads user-editable system prompts from a directory.
package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Januuus/chatbot/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.PromptStore = (*Store)(nil)

// Store reads prompts from <dir>/<name>.txt, falling back to the defaults
// it was created with.
//
// Initialisation is lazy: the directory and default files are written on
// the first Load, not in the constructor.
type Store struct {
	mu       sync.RWMutex
	dir      string
	defaults map[string]string
	cache    map[string]string
	initOnce sync.Once
	initErr  error
}

// NewStore creates a prompt store over dir. An empty dir disables file
// access and Load returns the defaults.
func NewStore(dir string, defaults map[string]string) *Store {
	d := make(map[string]string, len(defaults))
	for k, v := range defaults {
		d[k] = v
	}
	return &Store{
		dir:      dir,
		defaults: d,
		cache:    make(map[string]string),
	}
}

// Load returns the prompt for name. Files that are missing or empty fall
// back to the default.
func (s *Store) Load(name string) (string, error) {
	if s.dir == "" {
		return s.fallback(name, nil)
	}

	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.fallback(name, s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		return s.fallback(name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

func (s *Store) fallback(name string, cause error) (string, error) {
	if prompt, ok := s.defaults[name]; ok {
		return prompt, nil
	}
	if cause != nil {
		return "", fmt.Errorf("load prompt %q: %w", name, cause)
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}

// initialise creates the directory, default prompt files and a README.
// Existing files are left alone.
func (s *Store) initialise() {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range s.defaults {
		path := filepath.Join(s.dir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0o644); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *Store) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *Store) createReadme() error {
	path := filepath.Join(s.dir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	names := make([]string, 0, len(s.defaults))
	for name := range s.defaults {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("# Chatbot prompts\n\n")
	b.WriteString("System prompts sent to the language models. Edit a file and restart\n")
	b.WriteString("the server to change model behaviour. Delete a file to restore its default.\n\n")
	b.WriteString("## Files\n\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- `%s.txt`\n", name)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
