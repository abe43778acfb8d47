package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"compliance-backend/internal/bootstrap"
	"compliance-backend/internal/compliance"
	"compliance-backend/internal/llm"
	"compliance-backend/internal/prompts"
	"compliance-backend/internal/recommendations"
	"compliance-backend/internal/shared/config"
	"compliance-backend/internal/shared/util"
)

type output struct {
	PromptHash      string                      `json:"promptHash"`
	System          string                      `json:"system,omitempty"`
	Prompt          string                      `json:"prompt,omitempty"`
	Provider        llm.ProviderKind            `json:"provider"`
	Model           string                      `json:"model"`
	Source          recommendations.Source      `json:"source,omitempty"`
	Error           string                      `json:"error,omitempty"`
	Recommendations []compliance.Recommendation `json:"recommendations,omitempty"`
}

func main() {
	cfg := config.Load()

	reqPath := flag.String("request", "", "Path to a recommendation request JSON file")
	call := flag.Bool("call", false, "Send the prompt to the configured provider")
	showPrompt := flag.Bool("show-prompt", true, "Include the rendered prompt in the output")
	outPath := flag.String("out", "", "Path to write JSON output (optional)")
	provider := flag.String("provider", cfg.AIProvider, "Provider (openai, anthropic, ollama)")
	model := flag.String("model", cfg.AIModel, "Model")
	flag.Parse()

	if strings.TrimSpace(*reqPath) == "" {
		exitErr("request path is required")
	}
	raw, err := os.ReadFile(*reqPath)
	if err != nil {
		exitErr(fmt.Sprintf("read request: %v", err))
	}
	var req compliance.RecommendationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		exitErr(fmt.Sprintf("invalid request json: %v", err))
	}

	cfg.AIProvider = strings.ToLower(strings.TrimSpace(*provider))
	cfg.AIModel = *model
	providerCfg := bootstrap.DefaultProviderConfig(cfg)

	prompt := prompts.Recommendations(req)
	out := output{
		PromptHash: util.HashKey(prompt.System + "\n" + prompt.Prompt),
		Provider:   providerCfg.Provider,
		Model:      providerCfg.Model,
	}
	if *showPrompt {
		out.System = prompt.System
		out.Prompt = prompt.Prompt
	}

	if *call {
		out.Recommendations, out.Source, out.Error = run(context.Background(), cfg, providerCfg, req, prompt)
	}

	pretty, err := prettyJSON(out)
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

// run calls the provider directly so failures are printed next to the fallback.
func run(ctx context.Context, cfg config.Config, providerCfg llm.Config, req compliance.RecommendationRequest, prompt llm.Request) ([]compliance.Recommendation, recommendations.Source, string) {
	gateway := bootstrap.NewGateway(cfg, nil)
	if !gateway.Available(providerCfg) {
		return recommendations.Fallback(req), recommendations.SourceFallback, "provider unavailable: missing credentials or unknown provider"
	}
	text, err := gateway.Call(ctx, prompt, providerCfg)
	if err != nil {
		return recommendations.Fallback(req), recommendations.SourceFallback, err.Error()
	}
	recs, err := recommendations.Parse(text, req.CriticalIssues)
	if err != nil {
		return recommendations.Fallback(req), recommendations.SourceFallback, err.Error()
	}
	return recs, recommendations.SourceAI, ""
}

func prettyJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
