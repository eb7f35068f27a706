package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/paul-cloud-game-backend/capprobe/pkg/capability"
	"github.com/paul-cloud-game-backend/capprobe/pkg/config"
	"github.com/paul-cloud-game-backend/capprobe/pkg/httpserver"
)

// Report is the outcome of probing a set of requirements.
type Report struct {
	Ready   bool                `json:"ready" yaml:"ready"`
	Results []capability.Result `json:"capabilities" yaml:"capabilities"`
}

// NewReport marks the report ready when every result is available.
func NewReport(results []capability.Result) Report {
	rep := Report{Ready: true, Results: results}
	for _, res := range results {
		if !res.OK() {
			rep.Ready = false
		}
	}
	return rep
}

// Requirements resolves what to probe: explicit args first, then the
// manifest, then everything the registry knows about.
func Requirements(reg *capability.Registry, args []string, manifestPath string) ([]capability.Requirement, error) {
	var reqs []capability.Requirement
	for _, arg := range args {
		req, err := capability.ParseRequirement(arg)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	if manifestPath != "" {
		m, err := capability.LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, m.Capabilities...)
	}
	if len(reqs) == 0 {
		for _, name := range reg.Names() {
			reqs = append(reqs, capability.Requirement{Name: name})
		}
	}
	return reqs, nil
}

// Check probes reqs and returns the report.
func Check(ctx context.Context, reg *capability.Registry, reqs []capability.Requirement) Report {
	return NewReport(reg.ProbeAll(ctx, reqs))
}

// WriteReport renders rep as text, json or yaml.
func WriteReport(w io.Writer, format string, rep Report) error {
	switch format {
	case "", "text":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "CAPABILITY\tREQUIRED\tSTATUS\tVERSION\tDETAIL")
		for _, res := range rep.Results {
			detail := res.Info.Location
			if res.Err != nil {
				detail = res.Err.Error()
			}
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", res.Name, dash(res.MinVersion), res.Status, dash(res.Info.Version), detail)
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (expected text, json or yaml)", format)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// NewHandler serves /healthz, /readyz, /capabilities and /metrics. Each
// readiness request probes through a fresh registry from build, so the
// answer tracks the environment instead of the first probe.
func NewHandler(build func() *capability.Registry, reqs []capability.Requirement) http.Handler {
	check := func(ctx context.Context) Report {
		rep := Check(ctx, build(), reqs)
		for _, res := range rep.Results {
			httpserver.RecordProbe(res.Name, res.Status.String())
		}
		return rep
	}

	mux := httpserver.NewMux("capprobe", func(ctx context.Context) (bool, any) {
		rep := check(ctx)
		return rep.Ready, rep
	})
	mux.HandleFunc("GET /capabilities", func(w http.ResponseWriter, r *http.Request) {
		httpserver.WriteJSON(w, http.StatusOK, check(r.Context()))
	})
	return mux
}

// RunServe starts the readiness server and blocks until ctx is canceled.
func RunServe(ctx context.Context, cfg config.Config, logger zerolog.Logger, reqs []capability.Requirement) error {
	build := func() *capability.Registry {
		return capability.NewDefault(cfg, logger)
	}
	logger.Info().Int("requirements", len(reqs)).Msg("starting readiness server")
	return httpserver.Run(ctx, logger, cfg.HTTPPort, NewHandler(build, reqs), cfg.ShutdownTimeout)
}
