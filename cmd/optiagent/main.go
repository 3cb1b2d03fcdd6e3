// Command optiagent turns a natural-language optimization problem into an
// executable gurobipy script through a sequence of model calls, writing a
// checkpoint after every stage so a run can be resumed with -stage.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/xijx23/optiAgent/internal/llm"
	"github.com/xijx23/optiAgent/internal/pipeline"
	"github.com/xijx23/optiAgent/internal/solver"
	"github.com/xijx23/optiAgent/internal/state"
	"github.com/xijx23/optiAgent/internal/types"
)

const (
	exitUsage    = 2
	exitPipeline = 3
)

func main() {
	name := flag.String("name", "", "problem name (directory under -base)")
	base := flag.String("base", "problems", "base directory for problem workspaces")
	desc := flag.String("desc", "", "problem description text")
	descFile := flag.String("desc-file", "", "file containing the problem description")
	stage := flag.String("stage", "", "resume from stage: "+strings.Join(pipeline.Stages, ", "))
	provider := flag.String("provider", "tongyi", "model provider: tongyi, gemini, fake")
	model := flag.String("model", "", "model id (provider default when empty)")
	python := flag.String("python", "python", "python interpreter for the generated script")
	timeout := flag.Duration("timeout", solver.DefaultRunTimeout, "script execution timeout")
	skipExec := flag.Bool("skip-exec", false, "assemble the script but do not run it")
	force := flag.Bool("force", false, "overwrite existing checkpoints")
	flag.Parse()

	if *name == "" {
		usageErr("-name is required")
	}
	startIdx := 0
	if *stage != "" {
		startIdx = stageIndex(*stage)
		if startIdx < 0 {
			usageErr(fmt.Sprintf("unknown stage %q (valid: %s)", *stage, strings.Join(pipeline.Stages, ", ")))
		}
	}

	_ = godotenv.Load()

	store, err := state.NewStore(*base, *name)
	if err != nil {
		usageErr(err.Error())
	}
	if *stage == "" && store.HasCheckpoints() && !*force {
		usageErr(fmt.Sprintf("problem %q already has checkpoints in %s; pass -force to start over or -stage to resume", *name, store.Root()))
	}

	ctx := context.Background()
	cli, err := buildClient(ctx, *provider, *model)
	if err != nil {
		usageErr(err.Error())
	}
	cli = llm.Wrap(cli,
		llm.WithLogging(nil),
		llm.WithCache(128),
		llm.RateLimitFromEnv("LLM", strings.ToUpper(*provider)),
		llm.Retry(3, time.Second),
	)
	cli = llm.WithHook(cli, state.NewTraceSaver(store))
	defer cli.Close()

	var st types.State
	if *stage == "" {
		description, err := readDescription(*desc, *descFile)
		if err != nil {
			usageErr(err.Error())
		}
		st, err = state.NewInitialState(*name, description)
		if err != nil {
			usageErr(err.Error())
		}
		must(store.SaveDescription(st.Description))
		must(store.SaveState(state.State0Description, st))
	} else {
		checkpoint := requiredCheckpoint(startIdx)
		st, err = store.LoadState(checkpoint)
		if err != nil {
			fail(fmt.Errorf("cannot resume at %s: %w", pipeline.Stages[startIdx], err))
		}
		log.Printf("resuming %s from %s", *name, checkpoint)
	}

	if startIdx <= 0 {
		log.Println("Stage 1/8: parameter extraction")
		p := pipeline.Params{LLM: cli}
		out, err := p.Run(ctx, st.Description)
		if err != nil {
			fail(err)
		}
		st.Parameters = out.Parameters
		must(store.SaveJSON(state.ParamsFile, out.Parameters))
		must(store.SaveJSON(state.ParamsLog, []pipeline.Trace{out.Trace}))
		must(store.SaveState(state.State1Params, st))
	}

	if startIdx <= 1 {
		log.Println("Stage 2/8: objective extraction")
		p := pipeline.Objective{LLM: cli}
		out, err := p.Run(ctx, st.Description, st.Parameters)
		if err != nil {
			fail(err)
		}
		st.Objective = &out.Objective
		must(store.SaveJSON(state.ObjectiveLog, []pipeline.Trace{out.Trace}))
		must(store.SaveState(state.State2Objective, st))
	}

	if startIdx <= 2 {
		log.Println("Stage 3/8: constraint extraction")
		p := pipeline.Constraints{LLM: cli}
		out, err := p.Run(ctx, st.Description, st.Parameters)
		if err != nil {
			fail(err)
		}
		st.Constraints = out.Constraints
		must(store.SaveJSON(state.ConstraintsLog, []pipeline.Trace{out.Trace}))
		must(store.SaveState(state.State3Constraints, st))
	}

	if startIdx <= 3 {
		log.Println("Stage 4/8: constraint formulation")
		p := pipeline.ConstraintFormulation{LLM: cli}
		out, err := p.Run(ctx, st.Description, st.Parameters, st.Constraints, st.Variables)
		if err != nil {
			fail(err)
		}
		st.Constraints = out.Constraints
		st.Variables = out.Variables
		must(store.SaveJSON(state.ConstraintModelingLog, out.Traces))
		must(store.SaveState(state.State4ConstraintsModeled, st))
	}

	if startIdx <= 4 {
		log.Println("Stage 5/8: objective formulation")
		if st.Objective == nil {
			fail(fmt.Errorf("checkpoint has no objective; rerun from the objective stage"))
		}
		p := pipeline.ObjectiveFormulation{LLM: cli}
		out, err := p.Run(ctx, st.Description, st.Parameters, st.Variables, *st.Objective)
		if err != nil {
			fail(err)
		}
		st.Objective = &out.Objective
		must(store.SaveJSON(state.ObjectiveModelingLog, []pipeline.Trace{out.Trace}))
		must(store.SaveState(state.State5ObjectiveModeled, st))
	}

	if startIdx <= 5 {
		log.Println("Stage 6/8: code generation")
		if st.Objective == nil {
			fail(fmt.Errorf("checkpoint has no objective; rerun from the objective stage"))
		}
		p := pipeline.CodeGen{LLM: cli}
		out, err := p.Run(ctx, st.Description, st.Parameters, st.Variables, st.Constraints, *st.Objective)
		if err != nil {
			fail(err)
		}
		st.Constraints = out.Constraints
		st.Objective = &out.Objective
		must(store.SaveJSON(state.CodeGenerationLog, out.Traces))
		must(store.SaveState(state.State6Code, st))
	}

	if startIdx <= 6 {
		log.Println("Stage 7/8: script assembly")
		asm, err := solver.AssembleScript(st, store.Root(), "")
		if err != nil {
			fail(err)
		}
		log.Printf("wrote %s and %s", asm.ScriptPath, asm.DataPath)
	}

	if startIdx <= 7 {
		if *skipExec {
			log.Println("Stage 8/8: execution skipped (-skip-exec)")
		} else {
			log.Println("Stage 8/8: script execution")
			result, err := solver.Run(ctx, store.Path(solver.DefaultScriptName), *python, *timeout)
			if err != nil {
				fail(err)
			}
			must(store.SaveJSON(state.ExecutionOutput, result))
			if !result.Succeeded() {
				log.Printf("script exited with code %d\nstderr:\n%s", result.Returncode, result.Stderr)
				os.Exit(exitPipeline)
			}
			fmt.Print(result.Stdout)
		}
	}

	log.Println("pipeline completed ->", store.Root())
}

// buildClient constructs the raw provider client before middleware.
func buildClient(ctx context.Context, provider, model string) (llm.Client, error) {
	switch provider {
	case "tongyi":
		return llm.NewTongyiClient("", model)
	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
		if model == "" {
			model = "gemini-2.5-flash"
		}
		return llm.NewGeminiClient(ctx, apiKey, model)
	case "fake":
		return llm.NewFakeClient(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (valid: tongyi, gemini, fake)", provider)
	}
}

// readDescription takes the problem text from exactly one of the two flags.
func readDescription(inline, file string) (string, error) {
	switch {
	case inline != "" && file != "":
		return "", fmt.Errorf("-desc and -desc-file are mutually exclusive")
	case inline != "":
		return inline, nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("a fresh run needs -desc or -desc-file")
	}
}

func stageIndex(name string) int {
	for i, s := range pipeline.Stages {
		if s == name {
			return i
		}
	}
	return -1
}

// requiredCheckpoint names the state file that must exist to start at stage i.
// The assemble and execute stages both replay from the final code checkpoint.
func requiredCheckpoint(i int) string {
	if i >= len(state.Checkpoints) {
		return state.Checkpoints[len(state.Checkpoints)-1]
	}
	return state.Checkpoints[i]
}

func must(err error) {
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	log.Print(err)
	os.Exit(exitPipeline)
}

func usageErr(msg string) {
	fmt.Fprintln(os.Stderr, "optiagent:", msg)
	os.Exit(exitUsage)
}
