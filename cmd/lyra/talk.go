package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adiwardana/lyra/adapters/capture"
	"github.com/adiwardana/lyra/adapters/tts"
	"github.com/adiwardana/lyra/config"
	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/usecase"
)

var talkCmd = &cobra.Command{
	Use:   "talk",
	Short: "Run a local press-to-talk session in the terminal",
	Long: "Talk records from the default microphone, transcribes, generates a reply, " +
		"and plays it through the speakers. Press Enter to start and stop recording, " +
		"type text to skip the microphone, or type q to quit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTalk()
	},
}

func runTalk() error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()

	mic := capture.NewMicrophone(logger)
	transcriber := buildTranscriber(ctx, cfg, logger)
	generator := buildGenerator(ctx, logger)
	speaker := tts.NewSpeaker(buildVoice(logger), logger)

	pipeline := usecase.NewPipeline(mic, transcriber, generator, speaker, pipelineConfig(cfg), logger)
	pipeline.SetCallbacks(usecase.Callbacks{
		OnStateChange: func(state entities.PipelineState) {
			fmt.Printf("[%s]\n", state)
		},
		OnTranscript: func(text string) {
			fmt.Printf("you: %s\n", text)
		},
		OnStreamChunk: func(fragment string) {
			fmt.Print(fragment)
		},
		OnResponse: func(string) {
			fmt.Println()
		},
		OnError: func(err error) {
			fmt.Printf("error: %v\n", err)
		},
		OnComplete: func(resp entities.PipelineResponse) {
			fmt.Printf("(stt %dms, llm %dms, tts %dms, total %dms)\n",
				resp.TranscriptionTimeMs, resp.LLMTimeMs, resp.TTSTimeMs, resp.TotalTimeMs)
		},
	})

	fmt.Println("Press Enter to talk, type a message for text mode, q to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "q" || line == "quit":
			pipeline.Cancel()
			return nil

		case line == "":
			if pipeline.State() == entities.StateListening {
				if _, err := pipeline.StopListening(ctx, usecase.Options{StreamLLM: true, PlayAudio: true}); err != nil {
					fmt.Printf("error: %v\n", err)
				}
				continue
			}
			if err := pipeline.StartListening(ctx); err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Println("recording... press Enter to stop")

		default:
			if _, err := pipeline.ProcessText(ctx, line, usecase.Options{StreamLLM: true, PlayAudio: true}); err != nil {
				fmt.Printf("error: %v\n", err)
			}
		}
	}
	return scanner.Err()
}
