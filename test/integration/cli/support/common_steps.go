package support

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/testutil"
	"github.com/MeKo-Tech/digitread/internal/utils"
	"github.com/cucumber/godog"
)

// RegisterCommonSteps registers the fixture, command and output steps.
func (tc *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the digit classifiers are available$`, tc.theDigitClassifiersAreAvailable)
	sc.Step(`^only the "([^"]*)" classifier is available$`, tc.onlyTheClassifierIsAvailable)
	sc.Step(`^no classifier artifacts are available$`, tc.noClassifierArtifactsAreAvailable)
	sc.Step(`^an image "([^"]*)" showing "([^"]*)"$`, tc.anImageShowing)
	sc.Step(`^a blank image "([^"]*)"$`, tc.aBlankImage)
	sc.Step(`^a file "([^"]*)" containing "([^"]*)"$`, tc.aFileContaining)
	sc.Step(`^a config file "([^"]*)" with:$`, tc.aConfigFileWith)
	sc.Step(`^the environment variable "([^"]*)" is "([^"]*)"$`, tc.theEnvironmentVariableIs)

	sc.Step(`^I run digitread with "([^"]*)"$`, tc.iRunDigitreadWith)

	sc.Step(`^the command should succeed$`, tc.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, tc.theCommandShouldFail)
	sc.Step(`^the error should contain "([^"]*)"$`, tc.theErrorShouldContain)
	sc.Step(`^the output should contain "([^"]*)"$`, tc.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, tc.theOutputShouldNotContain)
	sc.Step(`^the output should be empty$`, tc.theOutputShouldBeEmpty)
	sc.Step(`^the first output line should start with "([^"]*)"$`, tc.theFirstOutputLineShouldStartWith)
	sc.Step(`^the output should be valid JSON$`, tc.theOutputShouldBeValidJSON)
	sc.Step(`^the predicted digits should be "([^"]*)"$`, tc.thePredictedDigitsShouldBe)
	sc.Step(`^the output should have (\d+) lines$`, tc.theOutputShouldHaveLines)
	sc.Step(`^the file "([^"]*)" should exist$`, tc.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, tc.theFileShouldContain)
}

func (tc *TestContext) theDigitClassifiersAreAvailable() error {
	for _, kind := range []models.Kind{models.KindSVM, models.KindKNN} {
		if _, err := testutil.WriteTemplateArtifact(tc.ModelsDir, kind); err != nil {
			return fmt.Errorf("failed to write %s artifact: %w", kind, err)
		}
	}
	return nil
}

func (tc *TestContext) onlyTheClassifierIsAvailable(name string) error {
	kind, err := models.ParseKind(name)
	if err != nil {
		return err
	}
	_, err = testutil.WriteTemplateArtifact(tc.ModelsDir, kind)
	return err
}

func (tc *TestContext) noClassifierArtifactsAreAvailable() error {
	return testutil.EnsureDir(tc.ModelsDir)
}

func (tc *TestContext) writeImage(name, text string) error {
	if err := testutil.EnsureDir(parentDir(tc.Path(name))); err != nil {
		return err
	}
	data, err := utils.EncodePNG(testutil.RenderDigits(text, testutil.DefaultRenderOptions()))
	if err != nil {
		return err
	}
	return os.WriteFile(tc.Path(name), data, 0o600)
}

func (tc *TestContext) anImageShowing(name, text string) error {
	return tc.writeImage(name, text)
}

func (tc *TestContext) aBlankImage(name string) error {
	return tc.writeImage(name, " ")
}

func (tc *TestContext) aFileContaining(name, content string) error {
	if err := testutil.EnsureDir(parentDir(tc.Path(name))); err != nil {
		return err
	}
	return os.WriteFile(tc.Path(name), []byte(content), 0o600)
}

func (tc *TestContext) aConfigFileWith(name string, doc *godog.DocString) error {
	content := strings.ReplaceAll(doc.Content, "{tmp}", tc.TempDir)
	return os.WriteFile(tc.Path(name), []byte(content), 0o600)
}

// theEnvironmentVariableIs sets a process variable for the rest of the
// scenario; Cleanup restores it.
func (tc *TestContext) theEnvironmentVariableIs(name, value string) error {
	tc.setEnv(name, strings.ReplaceAll(value, "{tmp}", tc.TempDir))
	return nil
}

func (tc *TestContext) iRunDigitreadWith(commandLine string) error {
	tc.RunCLI(tc.expandArgs(commandLine))
	return nil
}

func (tc *TestContext) theCommandShouldSucceed() error {
	if tc.LastError != nil {
		return fmt.Errorf("command %v failed: %w\nstderr: %s", tc.LastArgs, tc.LastError, tc.LastStderr)
	}
	return nil
}

func (tc *TestContext) theCommandShouldFail() error {
	if tc.LastError == nil {
		return fmt.Errorf("command %v succeeded unexpectedly\noutput: %s", tc.LastArgs, tc.LastOutput)
	}
	return nil
}

func (tc *TestContext) theErrorShouldContain(text string) error {
	if tc.LastError == nil {
		return errors.New("expected an error but the command succeeded")
	}
	if !strings.Contains(tc.LastError.Error(), text) {
		return fmt.Errorf("error %q does not contain %q", tc.LastError, text)
	}
	return nil
}

func (tc *TestContext) theOutputShouldContain(text string) error {
	text = strings.ReplaceAll(text, "{tmp}", tc.TempDir)
	if !strings.Contains(tc.LastOutput, text) {
		return fmt.Errorf("output does not contain %q:\n%s", text, tc.LastOutput)
	}
	return nil
}

func (tc *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(tc.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains %q:\n%s", text, tc.LastOutput)
	}
	return nil
}

func (tc *TestContext) theOutputShouldBeEmpty() error {
	if strings.TrimSpace(tc.LastOutput) != "" {
		return fmt.Errorf("expected empty output, got:\n%s", tc.LastOutput)
	}
	return nil
}

func (tc *TestContext) theFirstOutputLineShouldStartWith(prefix string) error {
	first, _, _ := strings.Cut(tc.LastOutput, "\n")
	if !strings.HasPrefix(first, prefix) {
		return fmt.Errorf("first line %q does not start with %q", first, prefix)
	}
	return nil
}

func (tc *TestContext) theOutputShouldBeValidJSON() error {
	if !json.Valid([]byte(tc.LastOutput)) {
		return fmt.Errorf("output is not valid JSON:\n%s", tc.LastOutput)
	}
	return nil
}

func (tc *TestContext) thePredictedDigitsShouldBe(expected string) error {
	var res struct {
		Prediction string `json:"prediction"`
	}
	if err := json.Unmarshal([]byte(tc.LastOutput), &res); err != nil {
		return fmt.Errorf("failed to parse output as a recognition result: %w", err)
	}
	if res.Prediction != expected {
		return fmt.Errorf("predicted %q, want %q", res.Prediction, expected)
	}
	return nil
}

func (tc *TestContext) theOutputShouldHaveLines(n int) error {
	lines := strings.Split(strings.TrimRight(tc.LastOutput, "\n"), "\n")
	if len(lines) != n {
		return fmt.Errorf("output has %d lines, want %d:\n%s", len(lines), n, tc.LastOutput)
	}
	return nil
}

func (tc *TestContext) theFileShouldExist(name string) error {
	if !testutil.FileExists(tc.Path(name)) {
		return fmt.Errorf("file %s does not exist", tc.Path(name))
	}
	return nil
}

func (tc *TestContext) theFileShouldContain(name, text string) error {
	data, err := os.ReadFile(tc.Path(name))
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("file %s does not contain %q:\n%s", name, text, data)
	}
	return nil
}
