// Package prompt asks the user for input on the terminal.
package prompt

import (
	"github.com/AlecAivazis/survey/v2"
)

// Prompter is the interactive input used by commands
type Prompter interface {
	// Input asks for a line of text; def is offered as the default
	Input(message, def string, required bool) (string, error)

	// Password asks for a secret without echoing it
	Password(message string) (string, error)

	// Select asks for one of options
	Select(message string, options []string, def string) (string, error)

	// Confirm asks a yes/no question
	Confirm(message string, def bool) (bool, error)
}

// surveyPrompter implements Prompter with survey
type surveyPrompter struct {
	opts []survey.AskOpt
}

// NewSurvey creates a terminal prompter
func NewSurvey(opts ...survey.AskOpt) Prompter {
	return &surveyPrompter{opts: opts}
}

func (p *surveyPrompter) Input(message, def string, required bool) (string, error) {
	var answer string
	opts := p.opts
	if required {
		opts = append(append([]survey.AskOpt{}, opts...), survey.WithValidator(survey.Required))
	}
	if err := survey.AskOne(&survey.Input{Message: message, Default: def}, &answer, opts...); err != nil {
		return "", err
	}
	return answer, nil
}

func (p *surveyPrompter) Password(message string) (string, error) {
	var answer string
	opts := append(append([]survey.AskOpt{}, p.opts...), survey.WithValidator(survey.Required))
	if err := survey.AskOne(&survey.Password{Message: message}, &answer, opts...); err != nil {
		return "", err
	}
	return answer, nil
}

func (p *surveyPrompter) Select(message string, options []string, def string) (string, error) {
	var answer string
	q := &survey.Select{Message: message, Options: options}
	if def != "" {
		q.Default = def
	}
	if err := survey.AskOne(q, &answer, p.opts...); err != nil {
		return "", err
	}
	return answer, nil
}

func (p *surveyPrompter) Confirm(message string, def bool) (bool, error) {
	var answer bool
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &answer, p.opts...); err != nil {
		return false, err
	}
	return answer, nil
}
