package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("formguard: prompt aborted")

// promptConfig configures a single answer prompt.
type promptConfig struct {
	Message   string
	Default   string
	Help      string
	Options   []string
	Validator func(string) error
}

// prompter abstracts the terminal so check can run against scripted answers.
type prompter interface {
	Input(ctx context.Context, cfg promptConfig) (string, error)
	Password(ctx context.Context, cfg promptConfig) (string, error)
	TextArea(ctx context.Context, cfg promptConfig) (string, error)
	Select(ctx context.Context, cfg promptConfig) (string, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Input(ctx context.Context, cfg promptConfig) (string, error) {
	return ask(ctx, &survey.Input{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}, cfg.Validator)
}

func (surveyPrompter) Password(ctx context.Context, cfg promptConfig) (string, error) {
	return ask(ctx, &survey.Password{Message: cfg.Message, Help: cfg.Help}, cfg.Validator)
}

func (surveyPrompter) TextArea(ctx context.Context, cfg promptConfig) (string, error) {
	return ask(ctx, &survey.Multiline{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}, cfg.Validator)
}

func (surveyPrompter) Select(ctx context.Context, cfg promptConfig) (string, error) {
	prompt := &survey.Select{Message: cfg.Message, Help: cfg.Help, Options: cfg.Options}
	for _, option := range cfg.Options {
		if option == cfg.Default {
			prompt.Default = cfg.Default
			break
		}
	}
	return ask(ctx, prompt, cfg.Validator)
}

func (surveyPrompter) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func ask(ctx context.Context, prompt survey.Prompt, validator func(string) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var opts []survey.AskOpt
	if validator != nil {
		opts = append(opts, survey.WithValidator(stringValidator(validator)))
	}
	var out string
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

// stringValidator adapts a string check to survey's answer validator. Select
// prompts hand the validator a survey.OptionAnswer.
func stringValidator(fn func(string) error) survey.Validator {
	return func(ans interface{}) error {
		switch v := ans.(type) {
		case string:
			return fn(v)
		case survey.OptionAnswer:
			return fn(v.Value)
		default:
			return fmt.Errorf("formguard: unexpected answer type %T", ans)
		}
	}
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
