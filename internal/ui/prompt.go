package ui

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// Credentials holds the answers of the login prompt.
type Credentials struct {
	Email    string
	Password string
}

// SignupDetails holds the answers of the signup prompt.
type SignupDetails struct {
	Name     string
	Email    string
	Password string
}

func validateEmail(val interface{}) error {
	email, ok := val.(string)
	if !ok || !strings.Contains(email, "@") {
		return fmt.Errorf("a valid email address is required")
	}
	return nil
}

// PromptCredentials interactively asks for login credentials.
func PromptCredentials() (Credentials, error) {
	qs := []*survey.Question{
		{
			Name:     "email",
			Prompt:   &survey.Input{Message: "Email:"},
			Validate: validateEmail,
		},
		{
			Name:     "password",
			Prompt:   &survey.Password{Message: "Password:"},
			Validate: survey.Required,
		},
	}

	var creds Credentials
	if err := survey.Ask(qs, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// PromptSignup interactively asks for the details of a new account.
func PromptSignup() (SignupDetails, error) {
	qs := []*survey.Question{
		{
			Name:     "name",
			Prompt:   &survey.Input{Message: "Display name:"},
			Validate: survey.Required,
		},
		{
			Name:     "email",
			Prompt:   &survey.Input{Message: "Email:"},
			Validate: validateEmail,
		},
		{
			Name: "password",
			Prompt: &survey.Password{Message: "Password:"},
			Validate: func(val interface{}) error {
				password, ok := val.(string)
				if !ok || len(password) < 8 {
					return fmt.Errorf("password must be at least 8 characters")
				}
				return nil
			},
		},
	}

	var details SignupDetails
	if err := survey.Ask(qs, &details); err != nil {
		return SignupDetails{}, err
	}
	return details, nil
}

// PromptRepositoryURL asks for a repository URL when none was given as an
// argument.
func PromptRepositoryURL() (string, error) {
	var url string
	prompt := &survey.Input{Message: "Repository URL:"}
	if err := survey.AskOne(prompt, &url, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return url, nil
}

// ConfirmReindex asks before re-indexing a repository that already has
// statistics.
func ConfirmReindex(name string) (bool, error) {
	var confirmed bool
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Re-index %s? Existing statistics stay visible until the run completes.", name),
		Default: true,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}
