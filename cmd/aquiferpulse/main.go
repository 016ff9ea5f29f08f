package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/api"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/asi"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/briefgen"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/geo"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/ingest"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/models"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/report"
	"github.com/Mamadiarrabousso/Aquiferpulse/internal/store"
)

type CLI struct {
	DB      string `help:"Path to SQLite database." default:"data/aquiferpulse.db" env:"AQP_DB"`
	DataDir string `help:"Data directory holding static/, interim/ and processed/." default:"data" env:"AQP_DATA_DIR"`

	Serve    ServeCmd    `cmd:"" default:"withargs" help:"Run the API server and the ingest scheduler."`
	Ingest   IngestCmd   `cmd:"" help:"Fetch sources once, recompute the index and exit."`
	Compute  ComputeCmd  `cmd:"" help:"Recompute the index from stored samples and exit."`
	Report   ReportCmd   `cmd:"" help:"Write the monthly brief PDF (and its CSV)."`
	Brief    BriefCmd    `cmd:"" help:"Write the top-10 CSV for a month."`
	SetNames SetNamesCmd `cmd:"" name:"set-names" help:"Fill missing basin names in the geometry file."`
}

// SourceFlags configures the upstream data sources. The HTTP sources are
// disabled when their URL is left empty.
type SourceFlags struct {
	GraceHost string `help:"GRACE FTP host (host:port)." env:"AQP_GRACE_HOST"`
	GracePath string `help:"GRACE FTP file path." env:"AQP_GRACE_PATH"`
	Era5URL   string `help:"ERA5 soil moisture CSV URL." env:"AQP_ERA5_URL"`
	ImergURL  string `help:"IMERG rainfall CSV URL." env:"AQP_IMERG_URL"`
}

func (f SourceFlags) sources() []ingest.Source {
	srcs := []ingest.Source{ingest.NewGraceClient(f.GraceHost, f.GracePath)}
	if f.Era5URL != "" {
		srcs = append(srcs, ingest.NewHTTPSource("era5", f.Era5URL))
	}
	if f.ImergURL != "" {
		srcs = append(srcs, ingest.NewHTTPSource("imerg", f.ImergURL))
	}
	return srcs
}

// App carries everything a command needs once the database is open.
type App struct {
	Store      *store.Store
	Pipeline   *ingest.Pipeline
	Loc        *time.Location
	DataDir    string
	BasinsPath string
}

type ServeCmd struct {
	SourceFlags
	Port   string `help:"HTTP server port." default:"8080" env:"AQP_PORT"`
	NoPoll bool   `help:"Disable polling (server only, for local dev)."`
}

func (c *ServeCmd) Run(app *App) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := api.NewServer(app.Store, c.Port, app.Loc, app.BasinsPath, filepath.Join(app.DataDir, "briefs"))
	app.Pipeline.OnRecompute = server.BriefCache().Invalidate

	if !c.NoPoll {
		scheduler := ingest.NewScheduler(app.Store, app.Pipeline, c.sources(), app.Loc)
		go scheduler.Run(ctx)
	} else {
		log.Println("polling disabled (--no-poll)")
	}

	log.Printf("starting server on :%s", c.Port)
	return server.Run(ctx)
}

type IngestCmd struct {
	SourceFlags
	Dir string `help:"Load interim CSV files from a local directory instead of the remote sources." type:"existingdir" optional:""`
}

func (c *IngestCmd) Run(app *App) error {
	if c.Dir != "" {
		stored, err := ingest.BackfillFromDir(app.Store, c.Dir)
		if err != nil {
			return err
		}
		log.Printf("ingest: stored %d samples from %s", stored, c.Dir)
		return app.Pipeline.Run()
	}

	scheduler := ingest.NewScheduler(app.Store, app.Pipeline, c.sources(), app.Loc)
	return scheduler.IngestOnce()
}

type ComputeCmd struct{}

func (c *ComputeCmd) Run(app *App) error {
	return app.Pipeline.Run()
}

// resolveMonth picks the month a command operates on: the flag when given,
// otherwise the latest month with index coverage.
func resolveMonth(app *App, flag string) (time.Time, error) {
	if flag != "" {
		return asi.ParseMonth(flag)
	}
	d, ok, err := app.Store.GetLatestCoveredDate()
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, fmt.Errorf("no index data to report on")
	}
	return d, nil
}

func outDir(app *App, flag string) (string, error) {
	dir := flag
	if dir == "" {
		dir = filepath.Join(app.DataDir, "processed")
	}
	return dir, os.MkdirAll(dir, 0755)
}

type ReportCmd struct {
	Date string `help:"Month to report on (YYYY-MM). Defaults to the latest covered month."`
	Out  string `help:"Output directory. Defaults to <data-dir>/processed."`
}

func (c *ReportCmd) Run(app *App) error {
	date, err := resolveMonth(app, c.Date)
	if err != nil {
		return err
	}
	summary, err := briefgen.BuildSummary(app.Store, date, 10)
	if err != nil {
		return err
	}

	var narrative string
	if gen, err := briefgen.NewNarrativeGenerator(); err != nil {
		log.Printf("Narrative generation disabled: %v", err)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if narrative, err = gen.Generate(ctx, *summary); err != nil {
			log.Printf("report: narrative: %v", err)
			narrative = ""
		}
	}

	dir, err := outDir(app, c.Out)
	if err != nil {
		return err
	}
	pdfPath := filepath.Join(dir, fmt.Sprintf("aquiferpulse_brief_%s.pdf", date.Format("2006-01")))
	csvPath := filepath.Join(dir, fmt.Sprintf("brief_top10_%s.csv", date.Format("20060102")))

	if err := report.WritePDF(pdfPath, *summary, narrative); err != nil {
		return err
	}
	if err := report.WriteTopCSV(csvPath, summary.Top); err != nil {
		return err
	}
	log.Printf("report: wrote %s and %s", pdfPath, csvPath)
	return nil
}

type BriefCmd struct {
	Date string `help:"Month to export (YYYY-MM). Defaults to the latest covered month."`
	Out  string `help:"Output directory. Defaults to <data-dir>/processed."`
}

func (c *BriefCmd) Run(app *App) error {
	date, err := resolveMonth(app, c.Date)
	if err != nil {
		return err
	}
	summary, err := briefgen.BuildSummary(app.Store, date, 10)
	if err != nil {
		return err
	}
	dir, err := outDir(app, c.Out)
	if err != nil {
		return err
	}
	csvPath := filepath.Join(dir, fmt.Sprintf("brief_top10_%s.csv", date.Format("20060102")))
	if err := report.WriteTopCSV(csvPath, summary.Top); err != nil {
		return err
	}
	log.Printf("brief: wrote %s", csvPath)
	return nil
}

type SetNamesCmd struct{}

func (c *SetNamesCmd) Run(app *App) error {
	fc, err := geo.Load(app.BasinsPath)
	if err != nil {
		return err
	}
	changed := fc.SetNames()
	if err := geo.Save(app.BasinsPath, fc); err != nil {
		return err
	}
	log.Printf("set-names: filled %d basin names", changed)
	return seedBasins(app.Store, app.BasinsPath)
}

func seedBasins(st *store.Store, basinsPath string) error {
	fc, err := geo.Load(basinsPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("warning: %s not found, no basins seeded", basinsPath)
			return nil
		}
		return err
	}
	for _, f := range fc.Features {
		id := f.BasinID()
		if id == "" {
			continue
		}
		name := id
		if n, ok := f.Properties["name"].(string); ok && n != "" {
			name = n
		}
		if err := st.UpsertBasin(models.Basin{BasinID: id, Name: name, Active: true}); err != nil {
			return fmt.Errorf("upsert basin %s: %w", id, err)
		}
	}
	log.Printf("seeded %d basins", len(fc.Features))
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("aquiferpulse"),
		kong.Description("Groundwater stress index dashboard for Senegal."),
		kong.UsageOnError(),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	if dir := filepath.Dir(cli.DB); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	loc, err := time.LoadLocation("Africa/Dakar")
	if err != nil {
		log.Printf("Warning: could not load Africa/Dakar timezone, using UTC: %v", err)
		loc = time.UTC
	}

	st := store.New(db, loc)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	app := &App{
		Store:      st,
		Pipeline:   ingest.NewPipeline(st, cli.DataDir),
		Loc:        loc,
		DataDir:    cli.DataDir,
		BasinsPath: filepath.Join(cli.DataDir, "static", "basins.geojson"),
	}

	if err := seedBasins(st, app.BasinsPath); err != nil {
		log.Fatalf("seed basins: %v", err)
	}

	kctx.FatalIfErrorf(kctx.Run(app))
}
