package main

import (
	"context"
	"log/slog"
	"time"

	"alexterm/internal/config"
	"alexterm/pkg/agent"
	"alexterm/pkg/conversation"
	"alexterm/pkg/notify"
	"alexterm/pkg/voice"
)

// shutdownGrace bounds how long in-flight audio and agent calls get to
// report back on exit.
const shutdownGrace = 2 * time.Second

// session wires the controller, workers and poller for one client run.
type session struct {
	ctrl   *conversation.Controller
	poller *notify.Poller
}

func newAgentClient(cfg *config.Config) *agent.Client {
	return agent.New(cfg.Agent.BaseURL,
		agent.WithToken(cfg.Agent.Token),
		agent.WithCommandTimeout(cfg.Agent.CommandTimeout.Std()),
		agent.WithHealthTimeout(cfg.Agent.HealthTimeout.Std()),
	)
}

func inputDevice(cfg *config.Config) voice.InputDevice {
	return voice.InputDevice{
		Name:       cfg.Voice.InputDevice,
		SampleRate: cfg.Voice.SampleRate,
		Format:     cfg.Voice.Format,
		Channels:   cfg.Voice.Channels,
	}
}

func newOpenAI(cfg *config.Config) *voice.OpenAI {
	opts := []voice.OpenAIOption{
		voice.WithModels(cfg.Voice.STTModel, cfg.Voice.TTSModel),
		voice.WithVoice(cfg.Voice.Voice),
		voice.WithLanguage(cfg.Voice.Language),
	}
	if cfg.Voice.OpenAIBaseURL != "" {
		opts = append(opts, voice.WithBaseURL(cfg.Voice.OpenAIBaseURL))
	}
	return voice.NewOpenAI(cfg.Voice.OpenAIKey, opts...)
}

// newSession builds a session. It probes audio devices, so it may run
// arecord and pactl; notices about what it found are queued on the
// controller and appear once it runs.
func newSession(ctx context.Context, cfg *config.Config, paths *Paths, conversationID string, runner voice.Runner) *session {
	client := newAgentClient(cfg)
	prefs := config.NewPrefs(paths.PrefsPath)

	deps := conversation.Deps{Agent: client, Prefs: prefs}
	var notices []string

	dev, fellBack := voice.ResolveInput(ctx, runner, inputDevice(cfg))
	if fellBack {
		notices = append(notices, "Microphone "+cfg.Voice.InputDevice+" not found, using "+dev.Name)
	}

	if cfg.Voice.OpenAIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, voice disabled")
		notices = append(notices, "OPENAI_API_KEY not set: voice input and output are disabled")
	} else {
		ai := newOpenAI(cfg)
		deps.Capture = voice.NewCaptureWorker(&voice.ALSARecorder{Runner: runner}, ai,
			voice.WithDuration(cfg.Voice.Duration.Std()),
			voice.WithMinClipBytes(cfg.Voice.MinClipBytes),
		)
		deps.Speaker = voice.NewSpeechWorker(ai, &voice.ExecPlayer{Runner: runner},
			voice.WithSinkResolver(func(ctx context.Context, sel voice.OutputSelector) string {
				return voice.ResolveSink(ctx, runner, sel)
			}),
		)
		if cfg.Voice.OutputSink == voice.SinkBluetooth {
			if sink := voice.DetectBluetoothSink(ctx, runner); sink != "" {
				notices = append(notices, "Bluetooth audio: "+sink)
			} else {
				notices = append(notices, "No Bluetooth speaker detected (using default audio)")
			}
		}
	}

	ctrl := conversation.New(deps, conversation.Options{
		ConversationID: conversationID,
		VoiceEnabled:   prefs.VoiceEnabled(),
		Input:          dev,
		Output:         voice.OutputSelector{Sink: cfg.Voice.OutputSink},
		Welcome:        cfg.Voice.Welcome,
	})
	for _, n := range notices {
		ctrl.Notice(n)
	}

	var sources []notify.Source
	if cfg.Notify.API {
		sources = append(sources, notify.APISource{Client: client})
	}
	sources = append(sources, notify.NewQueue(paths.QueuePath))
	poller := notify.NewPoller(ctrl, sources,
		notify.WithInterval(cfg.Notify.PollInterval.Std()),
		notify.WithWatch(paths.QueuePath),
	)

	return &session{ctrl: ctrl, poller: poller}
}

// run starts the controller and poller, runs ui until it returns, then shuts
// down in order: poller first, then the controller with a bounded grace.
func (s *session) run(ctx context.Context, ui func(ctx context.Context, v sessionView) error) error {
	ctrlCtx, stopCtrl := context.WithCancel(context.Background())
	ctrlDone := make(chan struct{})
	go func() {
		defer close(ctrlDone)
		if err := s.ctrl.Run(ctrlCtx, shutdownGrace); err != nil {
			slog.Error("controller stopped", "error", err)
		}
	}()

	pollCtx, stopPoll := context.WithCancel(ctx)
	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		s.ctrl.SetPollerActive(true)
		if err := s.poller.Run(pollCtx); err != nil {
			slog.Warn("notification poller stopped", "error", err)
		}
		s.ctrl.SetPollerActive(false)
	}()

	s.ctrl.Connect()
	err := ui(ctx, s.ctrl)

	stopPoll()
	<-pollDone
	stopCtrl()
	<-ctrlDone
	return err
}
