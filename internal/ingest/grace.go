package ingest

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/Mamadiarrabousso/Aquiferpulse/internal/models"
)

const (
	defaultGraceHost = "podaac-ftp.jpl.nasa.gov:21"
	defaultGracePath = "/allData/tellus/L3/mascon/basins/senegal_twsa.csv"
)

// GraceClient retrieves basin-averaged GRACE terrestrial water storage
// anomalies as a monthly CSV over anonymous FTP.
type GraceClient struct {
	host string
	path string
}

func NewGraceClient(host, path string) *GraceClient {
	if host == "" {
		host = defaultGraceHost
	}
	if path == "" {
		path = defaultGracePath
	}
	return &GraceClient{host: host, path: path}
}

func (g *GraceClient) Name() string { return "grace" }

func (g *GraceClient) Endpoint() string { return g.path }

// FetchResult carries transport-level details of one fetch for auditing.
type FetchResult struct {
	HTTPStatus   int
	ResponseSize int
	RecordCount  int
	ParseErrors  int
	ParseError   string
	Rejected     map[string]int // reject reason -> count
}

func (g *GraceClient) Fetch() ([]models.SourceSample, []byte, *FetchResult, error) {
	conn, err := ftp.Dial(g.host, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return nil, nil, nil, fmt.Errorf("ftp login: %w", err)
	}

	resp, err := conn.Retr(g.path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ftp retr %s: %w", g.path, err)
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read body: %w", err)
	}

	result := &FetchResult{ResponseSize: len(body)}

	samples, stats, err := ParseSourceCSV(bytes.NewReader(body), "grace")
	if err != nil {
		return nil, body, result, fmt.Errorf("parse grace csv: %w", err)
	}
	result.RecordCount = stats.Parsed
	result.ParseErrors = stats.TotalRejected()
	result.Rejected = stats.Rejected
	if result.ParseErrors > 0 {
		result.ParseError = fmt.Sprintf("%d rows rejected", result.ParseErrors)
	}
	return samples, body, result, nil
}
