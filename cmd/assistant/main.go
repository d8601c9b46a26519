// Command assistant is a terminal front-end for the dispatch core: plain
// lines go through action selection, slash commands drive the video and
// planning flows directly.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/virtual-assistant/vassist/assist"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/assist/adapters"
	ports "github.com/ZanzyTHEbar/virtual-assistant/vassist/assist/ports"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/config"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/conversation"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/media"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/schedule"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/speech"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "", "path to a config file (yaml)")
	flag.Parse()

	logger := newLogger()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	sentryEnabled := initSentry(logger)
	if sentryEnabled {
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiKey := os.Getenv("GEMINI_API_KEY")
	gate := adapters.NewStaticKeyGate(apiKey, logger)
	provider, err := adapters.NewGenAIProvider(ctx, apiKey, logger)
	if err != nil {
		fatal(logger, sentryEnabled, err, "failed to connect to the model provider, is GEMINI_API_KEY set?")
	}

	factory := assist.NewFactory(cfg, logger)
	dispatcher := factory.CreateDispatcher(provider, gate)
	planner := factory.CreatePlanner(provider)
	synth := factory.CreateSynthesizer(
		provider.SpeechBackend(cfg.Assistant.SpeechModel, cfg.Speech.Language),
		&wavePlayer{logger: logger},
	)

	config.WatchConfig(func(fresh *config.Config) {
		synth.SetPreferences(fresh.Speech.Language, fresh.Speech.PreferredGender)
		logger.Info().Msg("configuration reloaded, voice and video cadence apply to the next command, chat models keep their boot values")
	})

	fmt.Printf("Sanal asistan hazır (%s). Komutlar için /help, çıkmak için /quit.\n", cfg.Assistant.ChatModel)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for ctx.Err() == nil {
		fmt.Print("siz> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return
		case line == "/help":
			printHelp()
		case line == "/history":
			printHistory(dispatcher)
		case line == "/actions":
			printActions(dispatcher)
		case strings.HasPrefix(line, "/chat"):
			runChat(ctx, dispatcher, strings.TrimSpace(strings.TrimPrefix(line, "/chat")))
		case strings.HasPrefix(line, "/say"):
			runSay(ctx, synth, strings.TrimSpace(strings.TrimPrefix(line, "/say")))
		case strings.HasPrefix(line, "/video"):
			runVideo(ctx, factory, provider, gate, cfg, logger, strings.TrimSpace(strings.TrimPrefix(line, "/video")))
		case strings.HasPrefix(line, "/plan"):
			runPlan(ctx, planner, strings.TrimSpace(strings.TrimPrefix(line, "/plan")))
		case strings.HasPrefix(line, "/attach"):
			runAttach(ctx, dispatcher, logger, strings.TrimSpace(strings.TrimPrefix(line, "/attach")))
		default:
			runDispatch(ctx, dispatcher, assist.Input{Text: line})
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error().Err(err).Msg("stdin closed unexpectedly")
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func initSentry(logger zerolog.Logger) bool {
	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		return false
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      envOr("SENTRY_ENVIRONMENT", "production"),
		Release:          envOr("APP_VERSION", "dev"),
		AttachStacktrace: true,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("sentry initialization failed")
		return false
	}
	logger.Info().Msg("sentry initialized")
	return true
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(logger zerolog.Logger, sentryEnabled bool, err error, msg string) {
	if sentryEnabled {
		sentry.CaptureException(err)
		sentry.Flush(2 * time.Second)
	}
	logger.Fatal().Err(err).Msg(msg)
}

func printHelp() {
	fmt.Println(`  /chat <mesaj>            araç seçmeden akışlı sohbet eder
  /say <metin>             metni seslendirip wav dosyasına kaydeder
  /video [@resim] <metin>  bir video üretir ve dosyaya kaydeder
  /plan <konu>             otomatik paylaşım planı çıkarır
  /attach <dosya> <soru>   bir dosyayı soruyla birlikte gönderir
  /history                 konuşma geçmişini gösterir
  /actions                 tamamlanan işlemleri gösterir
  /quit                    çıkar`)
}

func runDispatch(ctx context.Context, dispatcher *assist.Dispatcher, input assist.Input) {
	turn, err := dispatcher.Dispatch(ctx, input)
	if err != nil {
		if errors.Is(err, assist.ErrBusy) {
			fmt.Println("asistan> Bir isteğiniz hâlâ işleniyor, lütfen bekleyin.")
			return
		}
		// The dispatcher already appended a user-facing apology turn.
		if turn.Text != "" {
			fmt.Println("asistan>", turn.Text)
		}
		return
	}
	renderTurn(turn)
}

func runChat(ctx context.Context, dispatcher *assist.Dispatcher, prompt string) {
	if prompt == "" {
		fmt.Println("kullanım: /chat <mesaj>")
		return
	}

	deltas, err := dispatcher.StreamReply(ctx, assist.Input{Text: prompt})
	if err != nil {
		if errors.Is(err, assist.ErrBusy) {
			fmt.Println("asistan> Bir isteğiniz hâlâ işleniyor, lütfen bekleyin.")
			return
		}
		fmt.Println("sohbet başlatılamadı:", err)
		return
	}

	fmt.Print("asistan> ")
	for delta := range deltas {
		if delta.Err != nil {
			fmt.Println("\nyanıt yarıda kesildi:", delta.Err)
			return
		}
		fmt.Print(delta.Text)
	}
	fmt.Println()
}

func runSay(ctx context.Context, synth *speech.Synthesizer, text string) {
	if text == "" {
		fmt.Println("kullanım: /say <metin>")
		return
	}

	if err := synth.Speak(ctx, text); err != nil {
		if errors.Is(err, ports.ErrCredentialMissing) || errors.Is(err, ports.ErrCredentialInvalid) {
			fmt.Println("API anahtarınızla ilgili bir sorun var, lütfen yapılandırmanızı kontrol edin.")
			return
		}
		fmt.Println("seslendirilemedi:", err)
	}
}

func renderTurn(turn conversation.Turn) {
	fmt.Println("asistan>", turn.Text)

	if turn.Tool != nil {
		if result, ok := turn.Tool.Payload.(assist.ToolResult); ok {
			for _, src := range result.Sources {
				fmt.Printf("  kaynak: %s (%s)\n", src.Title, src.URI)
			}
		}
	}
	for _, part := range turn.Parts {
		saveAttachment(part)
	}
}

func saveAttachment(part media.FilePart) {
	raw, err := part.Bytes()
	if err != nil {
		fmt.Println("  ek dosya çözümlenemedi:", err)
		return
	}

	ext := ".bin"
	switch part.MIMEType {
	case "image/png":
		ext = ".png"
	case "image/jpeg":
		ext = ".jpg"
	case "video/mp4":
		ext = ".mp4"
	}
	name := fmt.Sprintf("assistant-%s%s", time.Now().Format("20060102-150405"), ext)
	if err := os.WriteFile(name, raw, 0o644); err != nil {
		fmt.Println("  dosya kaydedilemedi:", err)
		return
	}
	fmt.Println("  dosya kaydedildi:", name)
}

// wavePlayer renders synthesized speech to WAV files on disk. The terminal
// has no audio device, so playback means handing the user a file.
type wavePlayer struct {
	logger zerolog.Logger
}

func (w *wavePlayer) Play(ctx context.Context, frame media.Frame) error {
	if levels, err := media.MeasureFrame(frame); err == nil && len(levels) > 0 {
		w.logger.Debug().Float64("rms", levels[0].RMS).Float64("peak", levels[0].Peak).Msg("speech level")
	}

	name := fmt.Sprintf("assistant-speech-%s.wav", time.Now().Format("20060102-150405"))
	if err := os.WriteFile(name, frame.WAV(), 0o644); err != nil {
		return fmt.Errorf("failed to save speech audio: %w", err)
	}
	fmt.Println("  ses kaydedildi:", name)
	return nil
}

func (w *wavePlayer) Stop() {}

func runVideo(ctx context.Context, factory *assist.Factory, provider ports.Provider, gate ports.KeyGate, cfg *config.Config, logger zerolog.Logger, args string) {
	req := ports.VideoRequest{
		Model:       cfg.Assistant.VideoModel,
		AspectRatio: cfg.Video.AspectRatio,
		Resolution:  cfg.Video.Resolution,
	}

	prompt := args
	if strings.HasPrefix(args, "@") {
		fields := strings.Fields(args)
		prompt = strings.TrimSpace(strings.TrimPrefix(args, fields[0]))

		part, err := media.FileToPart(strings.TrimPrefix(fields[0], "@"))
		if err != nil {
			fmt.Println("başlangıç karesi okunamadı:", err)
			return
		}
		raw, err := part.Bytes()
		if err != nil {
			fmt.Println("başlangıç karesi çözümlenemedi:", err)
			return
		}
		req.Image = &ports.Blob{MIMEType: part.MIMEType, Data: raw}
		logImageMeta(logger, part.MIMEType, raw)
	}
	if prompt == "" {
		fmt.Println("kullanım: /video [@resim] <açıklama>")
		return
	}
	req.Prompt = prompt

	// Rebuilt every run so a reloaded cadence takes effect.
	poller := factory.CreateVideoPoller(provider, gate)
	res, err := poller.Run(ctx, req, func(line string) {
		fmt.Println("  " + line)
	})
	if err != nil {
		if errors.Is(err, ports.ErrCredentialMissing) || errors.Is(err, ports.ErrCredentialInvalid) {
			fmt.Println("API anahtarınızla ilgili bir sorun var, lütfen yapılandırmanızı kontrol edin.")
			return
		}
		fmt.Println("video üretilemedi:", err)
		return
	}

	name := fmt.Sprintf("assistant-video-%s.mp4", time.Now().Format("20060102-150405"))
	if err := os.WriteFile(name, res.Data, 0o644); err != nil {
		fmt.Println("video kaydedilemedi:", err)
		return
	}
	fmt.Println("video kaydedildi:", name)
}

func runPlan(ctx context.Context, planner *schedule.Planner, topic string) {
	if topic == "" {
		fmt.Println("kullanım: /plan <konu>")
		return
	}

	plan, err := planner.Plan(ctx, schedule.PlanRequest{Topic: topic})
	if err != nil {
		fmt.Println("plan oluşturulamadı:", err)
		return
	}

	fmt.Printf("%d gönderilik plan hazır:\n", plan.Len())
	for _, post := range plan.Posts() {
		line := fmt.Sprintf("  [%s] %s  %s", post.ID, post.ScheduledFor.Format("02 Jan 15:04"), post.Title)
		if len(post.Hashtags) > 0 {
			line += "  " + strings.Join(post.Hashtags, " ")
		}
		fmt.Println(line)
	}
}

func runAttach(ctx context.Context, dispatcher *assist.Dispatcher, logger zerolog.Logger, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		fmt.Println("kullanım: /attach <dosya> <soru>")
		return
	}

	part, err := media.FileToPart(fields[0])
	if err != nil {
		fmt.Println("dosya okunamadı:", err)
		return
	}
	if raw, err := part.Bytes(); err == nil {
		logImageMeta(logger, part.MIMEType, raw)
	}

	prompt := strings.TrimSpace(strings.TrimPrefix(args, fields[0]))
	runDispatch(ctx, dispatcher, assist.Input{Text: prompt, Parts: []media.FilePart{part}})
}

// logImageMeta surfaces EXIF details for photo files. Files without an EXIF
// block are common; those stay quiet at debug level.
func logImageMeta(logger zerolog.Logger, mimeType string, raw []byte) {
	if mimeType != "image/jpeg" && mimeType != "image/tiff" {
		return
	}

	meta, err := media.ExtractImageMeta(bytes.NewReader(raw))
	if err != nil {
		logger.Debug().Err(err).Msg("attachment has no readable exif block")
		return
	}
	if line := meta.Summary(); line != "" {
		fmt.Println("  fotoğraf:", line)
	}
}

func printHistory(dispatcher *assist.Dispatcher) {
	turns := dispatcher.Transcript().Snapshot()
	if len(turns) == 0 {
		fmt.Println("henüz konuşma yok")
		return
	}
	for _, turn := range turns {
		who := "siz"
		if turn.Role == conversation.RoleModel {
			who = "asistan"
		}
		fmt.Printf("  %s> %s\n", who, turn.Text)
	}
}

func printActions(dispatcher *assist.Dispatcher) {
	entries := dispatcher.Actions().Snapshot()
	if len(entries) == 0 {
		fmt.Println("henüz tamamlanan işlem yok")
		return
	}
	for _, entry := range entries {
		fmt.Printf("  %s  %s: %s (%q)\n", entry.CreatedAt.Format("15:04:05"), entry.Tool, entry.Summary, entry.Prompt)
	}
}
