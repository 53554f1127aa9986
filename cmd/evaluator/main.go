// cmd/evaluator/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"cv-evaluator-client/internal/api"
	"cv-evaluator-client/internal/common/config"
	apperrors "cv-evaluator-client/internal/common/errors"
	"cv-evaluator-client/internal/common/logger"
	"cv-evaluator-client/internal/common/observability"
	"cv-evaluator-client/internal/common/transport"
	"cv-evaluator-client/internal/flow"
	"cv-evaluator-client/internal/models"
	"cv-evaluator-client/internal/polling"
	"cv-evaluator-client/internal/report"
	"cv-evaluator-client/internal/session"
)

const usage = `Usage: evaluator <command> [arguments]

Commands:
  signup   -email -password -name      register an account and sign in
  login    -email -password            sign in
  logout                               sign out and clear the local session
  whoami                               show the signed-in user
  evaluate <cv.pdf> <report.pdf> -job-title <title>
                                       run a full evaluation and print the report
  status   <jobId>                     show one job's current state
  list                                 list past evaluations, newest first
`

type app struct {
	cfg      *config.Config
	client   *api.Client
	sessions *session.Manager
	obs      *observability.Observability
	log      logger.Logger
	zapLog   *zap.Logger
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	zapLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild with the configured level/format once config is available.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("evaluator")
	defer obs.Shutdown()

	client := api.NewClient(cfg.API.BaseURL, api.Options{
		RequestTimeout: cfg.API.RequestTimeoutDuration(),
		UploadTimeout:  cfg.API.UploadTimeoutDuration(),
		Retry: &transport.RetryConfig{
			MaxRetries: cfg.API.MaxRetries,
			BaseDelay:  1 * time.Second,
		},
	}, log)

	store, err := newSessionStore(cfg)
	if err != nil {
		zapLog.Fatal("session store init failed", zap.Error(err))
	}

	a := &app{
		cfg:      cfg,
		client:   client,
		sessions: session.NewManager(client, store, log),
		obs:      obs,
		log:      log,
		zapLog:   zapLog,
	}

	ctx := context.Background()
	if err := a.sessions.Restore(ctx); err != nil {
		zapLog.Fatal("session restore failed", zap.Error(err))
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", apperrors.AsClientError(err).Message)
		os.Exit(1)
	}
}

func newSessionStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "redis":
		return session.NewRedisStore(cfg.Session.Redis), nil
	case "file":
		return session.NewFileStore(cfg.Session.Path), nil
	default:
		return nil, fmt.Errorf("unsupported session backend %q", cfg.Session.Backend)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "signup":
		return a.cmdSignUp(ctx, args)
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		return a.sessions.SignOut(ctx)
	case "whoami":
		return a.cmdWhoAmI(ctx)
	case "evaluate":
		return a.cmdEvaluate(ctx, args)
	case "status":
		return a.cmdStatus(ctx, args)
	case "list":
		return a.cmdList(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) cmdSignUp(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	name := fs.String("name", "", "display name")
	fs.Parse(args)

	if *email == "" || *password == "" || *name == "" {
		return fmt.Errorf("signup requires -email, -password and -name")
	}

	s, err := a.sessions.SignUp(ctx, *email, *password, *name)
	if err != nil {
		return err
	}
	fmt.Printf("Signed up and logged in as %s (%s)\n", s.User.Name, s.User.Email)
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		return fmt.Errorf("login requires -email and -password")
	}

	s, err := a.sessions.SignIn(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", s.User.Name, s.User.Email)
	return nil
}

func (a *app) cmdWhoAmI(ctx context.Context) error {
	if !a.sessions.IsAuthenticated() {
		fmt.Println("Not logged in.")
		return nil
	}
	user, err := a.sessions.RefreshUser(ctx)
	if err != nil {
		fmt.Println("Session expired. Please log in again.")
		return nil
	}
	fmt.Printf("%s (%s)\n", user.Name, user.Email)
	return nil
}

func (a *app) requireAuth() error {
	if !a.sessions.IsAuthenticated() {
		return fmt.Errorf("not logged in; run 'evaluator login' first")
	}
	return nil
}

func (a *app) cmdEvaluate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	jobTitle := fs.String("job-title", "", "job title to evaluate against")

	// Positional file arguments come first: evaluate cv.pdf report.pdf -job-title X
	var files []string
	rest := args
	for len(rest) > 0 && rest[0] != "" && rest[0][0] != '-' {
		files = append(files, rest[0])
		rest = rest[1:]
	}
	fs.Parse(rest)

	if err := a.requireAuth(); err != nil {
		return err
	}
	if len(files) != 2 {
		return fmt.Errorf("evaluate requires exactly two files: <cv.pdf> <project-report.pdf>")
	}

	cv, err := readDocument(files[0])
	if err != nil {
		return err
	}
	pr, err := readDocument(files[1])
	if err != nil {
		return err
	}

	controller := flow.NewController(a.client, a.cfg.Polling.IntervalDuration(), a.obs, a.log)
	done := make(chan flow.Snapshot, 1)
	controller.OnTransition = func(s flow.Snapshot) {
		switch s.State {
		case flow.StateEvaluating:
			fmt.Printf("\r%3d%%  %-28s", s.Progress, s.Phase)
		case flow.StateResults, flow.StateError, flow.StateRateLimit:
			fmt.Println()
			select {
			case done <- s:
			default:
			}
		}
	}

	if err := controller.SetDocuments(cv, pr); err != nil {
		return err
	}
	if err := controller.StartEvaluation(ctx, *jobTitle); err != nil {
		snap := controller.Snapshot()
		if snap.State == flow.StateRateLimit && snap.RateLimit != nil {
			printRateLimit(snap)
			return err
		}
		return err
	}

	snap := <-done
	switch snap.State {
	case flow.StateResults:
		fmt.Print(report.Render(*jobTitle, snap.Result))
		return nil
	case flow.StateRateLimit:
		printRateLimit(snap)
		return fmt.Errorf("rate limited")
	default:
		return fmt.Errorf("evaluation failed: %s", snap.Message)
	}
}

func printRateLimit(snap flow.Snapshot) {
	rl := snap.RateLimit
	fmt.Printf("Rate limit reached: %d evaluations per %s.\n", rl.Limit, rl.Period)
	if !rl.NextAvailable.IsZero() {
		fmt.Printf("Next evaluation available at %s.\n", rl.NextAvailable.Format(time.Kitchen))
	}
}

func (a *app) cmdStatus(ctx context.Context, args []string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("status requires exactly one job id")
	}

	job, err := a.client.GetJobStatus(ctx, args[0])
	if err != nil {
		return err
	}

	printJobLine(job)
	if job.Status == models.StatusCompleted && job.Result != nil {
		fmt.Println()
		fmt.Print(report.Render("", job.Result))
	}
	return nil
}

func (a *app) cmdList(ctx context.Context) error {
	if err := a.requireAuth(); err != nil {
		return err
	}

	jobs, err := a.client.ListEvaluations(ctx)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("No evaluations yet.")
		return nil
	}
	for i := range jobs {
		printJobLine(&jobs[i])
	}
	return nil
}

func printJobLine(job *models.Job) {
	line := fmt.Sprintf("%s  %-10s  %3d%%  %-26s  %s",
		job.ID, job.Status, polling.DisplayProgress(job), polling.Phase(job),
		job.CreatedAt.Local().Format("2006-01-02 15:04"))
	if job.Status == models.StatusCompleted && job.Result != nil {
		line += fmt.Sprintf("  overall %.1f (%s)",
			job.Result.FinalScore.OverallScore, models.RecommendationFor(job.Result.FinalScore.OverallScore))
	}
	if job.Status == models.StatusFailed && job.Error != "" {
		line += "  " + job.Error
	}
	fmt.Println(line)
}

func readDocument(path string) (models.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return models.Document{Name: filepath.Base(path), Content: content}, nil
}
