package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Persona is the assistant configuration: the system prompt sent ahead of every
// conversation plus optional decoding overrides.
type Persona struct {
	Name         string   `yaml:"name"`
	SystemPrompt string   `yaml:"system_prompt"`
	Fallback     string   `yaml:"fallback"`
	Temperature  *float64 `yaml:"temperature,omitempty"`
	MaxTokens    *int     `yaml:"max_tokens,omitempty"`
}

const DefaultFallbackReply = "Sorry, I could not generate a response."

const defaultSystemPrompt = `You are an AI assistant for Khun's portfolio website. Khun is an aspiring Systems Engineer and a Computer Engineering student at Singapore Polytechnic. Your job is to help visitors understand who Khun is, what he has done, and what he aims to achieve, in a way that reflects his personality, values, and communication style.

ABOUT KHUN
Khun is originally from Myanmar and moved to Singapore to continue his studies. He is composed, thoughtful, and naturally introverted, but becomes expressive and articulate once comfortable. He communicates clearly, listens well, and enjoys breaking down technical concepts for others. He is self-taught in many tools and technologies.

His values include reliability, adaptability, curiosity, ownership, and resourcefulness. Outside technology, he enjoys strength training, swimming, and spending time with cats. He is colorblind, which influences his preference for clean, functional, and accessible design.

CAREER FOCUS
Khun is building toward roles in Systems Engineering, Cloud Engineering, and Site Reliability, with a long-term focus on security-focused cloud infrastructure.

KEY EXPERIENCE
- Diploma in Computer Engineering at Singapore Polytechnic
- Systems Analyst / Application Support Intern at SP Group (Network Management System team): production support, fault analysis, report automation that saved over 80 man-hours per audit cycle
- Robotics Instructor for around 30 students weekly (EV3, Spike)

SKILLS
Windows/Linux, networking, virtualization (VMware/Docker), AWS, Azure, Python, JavaScript, TypeScript, Bash, PowerShell, SQL, PostgreSQL, CI/CD, Git, React, Node.js, Supabase, monitoring and logging tools.

HOW YOU SHOULD RESPOND
1. Answer questions about Khun's skills, experience, background, and projects.
2. Keep a friendly, clear, patient, professional tone. Keep responses concise unless asked for detail.
3. For specific projects, point visitors to the Projects section.
4. Encourage visitors to use the Contact form for collaborations, internships, or professional inquiries.
5. If something is unknown, say so honestly and suggest contacting Khun directly.
6. Never invent achievements, projects, or certifications.`

func DefaultPersona() Persona {
	return Persona{
		Name:         "portfolio-assistant",
		SystemPrompt: defaultSystemPrompt,
		Fallback:     DefaultFallbackReply,
	}
}

// LoadPersona reads a YAML persona file. Missing fields fall back to the defaults.
func LoadPersona(path string) (Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("failed to read persona file %s: %w", path, err)
	}
	return parsePersona(data)
}

func parsePersona(data []byte) (Persona, error) {
	p := DefaultPersona()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Persona{}, fmt.Errorf("failed to parse persona: %w", err)
	}
	if strings.TrimSpace(p.SystemPrompt) == "" {
		return Persona{}, fmt.Errorf("persona %q has an empty system_prompt", p.Name)
	}
	if strings.TrimSpace(p.Fallback) == "" {
		p.Fallback = DefaultFallbackReply
	}
	return p, nil
}

// PersonaStore serves the current persona and swaps it when the backing file changes.
type PersonaStore struct {
	path    string
	current atomic.Pointer[Persona]
}

// NewPersonaStore loads the persona at path, or the built-in default when path is empty.
func NewPersonaStore(path string) (*PersonaStore, error) {
	s := &PersonaStore{path: path}

	p := DefaultPersona()
	if path != "" {
		loaded, err := LoadPersona(path)
		if err != nil {
			return nil, err
		}
		p = loaded
	}
	s.current.Store(&p)
	return s, nil
}

func (s *PersonaStore) Current() Persona {
	return *s.current.Load()
}

// Watch reloads the persona whenever its file is written or recreated. It blocks until ctx is done.
// A file that fails to parse is logged and the previous persona stays active.
func (s *PersonaStore) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}

	absPath, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("failed to resolve persona path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create persona watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory; editors often replace the file instead of writing it in place.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	var debounce *time.Timer
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(absPath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() { s.reload(absPath) })

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Str("component", "persona").Msg("persona watcher error")
		}
	}
}

func (s *PersonaStore) reload(path string) {
	p, err := LoadPersona(path)
	if err != nil {
		log.Warn().Err(err).Str("component", "persona").Msg("keeping previous persona")
		return
	}
	s.current.Store(&p)
	log.Info().Str("component", "persona").Str("name", p.Name).Msg("persona reloaded")
}
