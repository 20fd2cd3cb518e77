package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

// stubModule is a test double for Module
type stubModule struct {
	name          string
	commands      []*discordgo.ApplicationCommand
	handlers      map[string]InteractionHandler
	eventHandlers []EventHandler
	initErr       error
	shutErr       error
}

func (m *stubModule) Name() string                                   { return m.name }
func (m *stubModule) Commands() []*discordgo.ApplicationCommand      { return m.commands }
func (m *stubModule) CommandHandlers() map[string]InteractionHandler { return m.handlers }
func (m *stubModule) EventHandlers() []EventHandler                  { return m.eventHandlers }
func (m *stubModule) Init(deps ModuleDependencies) error             { return m.initErr }
func (m *stubModule) Shutdown() error                                { return m.shutErr }

func TestRegistry_KeepsRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubModule{name: "sound_player"})
	reg.Register(&stubModule{name: "other"})

	modules := reg.Modules()
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	if modules[0].Name() != "sound_player" || modules[1].Name() != "other" {
		t.Errorf("unexpected order: %q, %q", modules[0].Name(), modules[1].Name())
	}
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry()
	mod := &stubModule{name: "sound_player"}
	reg.Register(mod)

	got, ok := reg.Lookup("sound_player")
	if !ok || got != mod {
		t.Errorf("expected registered module, got %v (ok=%v)", got, ok)
	}

	if _, ok := reg.Lookup("missing"); ok {
		t.Error("expected lookup of unknown module to fail")
	}
}

func TestRegistry_RegisterDuplicatePanics(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubModule{name: "sound_player"})

	defer func() {
		if recover() == nil {
			t.Error("expected duplicate registration to panic")
		}
	}()
	reg.Register(&stubModule{name: "sound_player"})
}

func TestRegistry_ModulesReturnsSnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubModule{name: "module-1"})

	modules := reg.Modules()
	reg.Register(&stubModule{name: "module-2"})

	if len(modules) != 1 {
		t.Errorf("expected snapshot to have 1 module, got %d", len(modules))
	}
}

func TestGlobalRegistry(t *testing.T) {
	ResetGlobalRegistry()
	t.Cleanup(ResetGlobalRegistry)

	Register(&stubModule{name: "global-test"})

	modules := Modules()
	if len(modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(modules))
	}
	if modules[0].Name() != "global-test" {
		t.Errorf("expected module name %q, got %q", "global-test", modules[0].Name())
	}
}

func TestMockResponder_RecordsEveryResponse(t *testing.T) {
	r := &MockResponder{}
	first := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseChannelMessageWithSource}
	second := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}

	_ = r.Respond(first)
	_ = r.Respond(second)

	if len(r.Responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(r.Responses))
	}
	if r.LastResponse != second {
		t.Error("expected LastResponse to be the most recent response")
	}
}
