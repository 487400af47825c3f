package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/dyike/bestfour/internal/models"
)

var codePattern = regexp.MustCompile(`^[0-9A-Z]{4,6}$`)

// validateCode accepts TWSE and TPEx style codes such as 2330, 0050 or 00878.
func validateCode(val interface{}) error {
	str, ok := val.(string)
	if !ok {
		return fmt.Errorf("code must be text")
	}
	str = strings.TrimSpace(strings.ToUpper(str))
	if str == "" {
		return fmt.Errorf("stock code cannot be empty")
	}
	if !codePattern.MatchString(str) && !isSearchQuery(str) {
		return fmt.Errorf("invalid code format (4 to 6 digits or letters)")
	}
	return nil
}

// isSearchQuery reports input that should be searched rather than analyzed,
// such as a company name.
func isSearchQuery(s string) bool {
	return !codePattern.MatchString(strings.ToUpper(s)) && strings.IndexFunc(s, func(r rune) bool { return r > 0x7f }) >= 0
}

// PromptForCode prompts the user to enter a stock code or company name
func PromptForCode() (string, error) {
	var code string
	prompt := &survey.Input{
		Message: "Enter a stock code or company name (e.g., 2330, 台積電):",
		Help:    "Codes are looked up in the local registry; names are searched",
	}

	if err := survey.AskOne(prompt, &code, survey.WithValidator(validateCode)); err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToUpper(code)), nil
}

// PromptForMatch lets the user choose among search hits.
func PromptForMatch(hits []models.CodeInfo) (string, error) {
	options := make([]string, len(hits))
	for i, h := range hits {
		options[i] = h.Code + " " + h.Name
	}

	var choice string
	prompt := &survey.Select{
		Message: "Select a security:",
		Options: options,
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return "", err
	}
	code, _, _ := strings.Cut(choice, " ")
	return code, nil
}

// PromptForRestartOrExit prompts user when analysis completes
func PromptForRestartOrExit() (bool, error) {
	var choice string
	prompt := &survey.Select{
		Message: "Analysis completed! What would you like to do next?",
		Options: []string{
			"Analyze another code",
			"Exit",
		},
		Default: "Exit",
	}

	if err := survey.AskOne(prompt, &choice); err != nil {
		return false, err
	}
	return choice == "Analyze another code", nil
}
