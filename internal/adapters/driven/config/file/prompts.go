package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/embediq/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads answer prompts from user-editable files on disk,
// falling back to built-in defaults.
//
// Files are only created on the first Load, never in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts are written to the prompt directory on first use.
// Each template receives the assembled context through its single %s.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswerNormal: `You are EmbedIQ, an AI assistant that answers questions based ONLY on the provided context.
The user is asking about content from their uploaded documents.
Answer the question using ONLY information from the provided context.
If the context doesn't contain the answer, say you don't know based on the available information.
Don't make up information or use external knowledge.

Context from uploaded documents:
%s`,

	driven.PromptAnswerELI5: `You are EmbedIQ, an AI assistant that answers questions based ONLY on the provided context.
The user is asking about content from their uploaded documents.
Explain your answer as if you're explaining to a 5-year-old, using simple language and concepts.
If the context doesn't contain the answer, say you don't know based on the available information.

Context from uploaded documents:
%s

Remember to keep your explanation very simple, as if for a young child.`,

	driven.PromptAnswerCompare: `You are EmbedIQ, an AI assistant that compares information from multiple documents.
The user is asking you to compare content from their uploaded documents.
Answer ONLY based on the provided context and highlight similarities and differences between documents.
If a specific comparison can't be made from the context, say so clearly.

Context from uploaded documents:
%s`,
}

// DefaultPrompt returns the built-in template for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.embediq/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".embediq", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// A file whose template lost its %s placeholder is ignored in favour of
// the default, since the context would otherwise never reach the model.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err == nil && !strings.Contains(prompt, "%s") {
		err = fmt.Errorf("prompt %q has no %%s placeholder", name)
	}
	if err != nil {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
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

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and any missing default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# EmbedIQ Prompts

These templates instruct the model when answering questions about your documents.

## Files

- ` + "`answer_normal.txt`" + ` - Answers strictly from the retrieved context
- ` + "`answer_eli5.txt`" + ` - Answers in very simple language
- ` + "`answer_compare.txt`" + ` - Contrasts the documents labelled DOCUMENT: <id>

## Placeholder

Each template must keep exactly one ` + "`%s`" + `, which receives the retrieved
context. Templates without it are ignored and the built-in default is used.

Changes take effect on the next command or server restart.
`
	return os.WriteFile(path, []byte(content), 0600)
}
