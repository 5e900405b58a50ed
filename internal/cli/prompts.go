package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
)

func validateDate(ans interface{}) error {
	s, ok := ans.(string)
	if !ok {
		return fmt.Errorf("expected a string")
	}
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("want YYYY-MM-DD")
	}
	return nil
}

func validateTicker(ans interface{}) error {
	s, ok := ans.(string)
	if !ok {
		return fmt.Errorf("expected a string")
	}
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 10 {
		return fmt.Errorf("enter a stock symbol, e.g. AAPL")
	}
	return nil
}

func promptForRun(opts *analyzeOptions) error {
	questions := []*survey.Question{}

	if opts.ticker == "" {
		questions = append(questions, &survey.Question{
			Name:     "ticker",
			Prompt:   &survey.Input{Message: "Stock symbol:", Default: "AAPL"},
			Validate: validateTicker,
		})
	}
	if opts.date == "" {
		questions = append(questions, &survey.Question{
			Name: "date",
			Prompt: &survey.Input{
				Message: "Trade date:",
				Default: time.Now().Format("2006-01-02"),
			},
			Validate: validateDate,
		})
	}
	if len(questions) == 0 {
		return nil
	}

	answers := struct {
		Ticker string
		Date   string
	}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	if answers.Ticker != "" {
		opts.ticker = strings.ToUpper(strings.TrimSpace(answers.Ticker))
	}
	if answers.Date != "" {
		opts.date = answers.Date
	}
	return nil
}

func promptForReflection(opts *reflectOptions) error {
	questions := []*survey.Question{}

	if opts.ticker == "" {
		questions = append(questions, &survey.Question{
			Name:     "ticker",
			Prompt:   &survey.Input{Message: "Stock symbol of the past run:"},
			Validate: validateTicker,
		})
	}
	if opts.date == "" {
		questions = append(questions, &survey.Question{
			Name:     "date",
			Prompt:   &survey.Input{Message: "Trade date of the past run:"},
			Validate: validateDate,
		})
	}
	if opts.outcome == "" {
		questions = append(questions, &survey.Question{
			Name:     "outcome",
			Prompt:   &survey.Input{Message: "Realized outcome (e.g. +4.2% over 7 trading days):"},
			Validate: survey.Required,
		})
	}
	if len(questions) == 0 {
		return nil
	}

	answers := struct {
		Ticker  string
		Date    string
		Outcome string
	}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	if answers.Ticker != "" {
		opts.ticker = strings.ToUpper(strings.TrimSpace(answers.Ticker))
	}
	if answers.Date != "" {
		opts.date = answers.Date
	}
	if answers.Outcome != "" {
		opts.outcome = answers.Outcome
	}
	return nil
}
