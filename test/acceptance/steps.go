package acceptance

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/SynapseHQ/limbic/internal/memory"
)

var testServerCmd *exec.Cmd
var testServerStdin io.WriteCloser
var testServerReader *bufio.Reader
var testStore *memory.Store

// TestContext holds state between steps
type TestContext struct {
	ctx            context.Context
	lastResponse   map[string]interface{}
	storedMemoryID string
	// CLI run state
	lastCLIStdout   string
	lastCLIStderr   string
	lastCLIExitCode int
}

// setupTestServer starts the limbic binary for testing
func setupTestServer() error {
	if testServerCmd != nil {
		return nil // Already running
	}

	binaryPath, err := ensureCLIBinary()
	if err != nil {
		return err
	}

	// Set up temp data directory (reuse if already set)
	tmpDir := os.Getenv("LIMBIC_DATA_DIR")
	if tmpDir == "" {
		var err error
		tmpDir, err = os.MkdirTemp("", "limbic-test-*")
		if err != nil {
			return err
		}
		os.Setenv("LIMBIC_DATA_DIR", tmpDir)
	}

	// Start server process
	cmd := exec.Command(binaryPath, "serve")
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, "LIMBIC_DATA_DIR="+tmpDir)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	testServerCmd = cmd
	testServerStdin = stdin
	testServerReader = bufio.NewReader(stdout)

	// Also open a store handle for direct seeding and assertions
	return ensureTestStore()
}

func ensureTestStore() error {
	if testStore != nil {
		return nil
	}
	store, err := memory.NewStore()
	if err != nil {
		return err
	}
	testStore = store
	return nil
}

func readServerResponse() (map[string]interface{}, error) {
	if testServerReader == nil {
		return nil, fmt.Errorf("server stdout not initialized")
	}

	line, err := testServerReader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, fmt.Errorf("empty response")
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return resp, nil
}

// sendRequest writes one JSON-RPC request and stores the parsed result
func (tc *TestContext) sendRequest(method string, params map[string]interface{}) error {
	if err := setupTestServer(); err != nil {
		return err
	}

	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}

	reqJSON, _ := json.Marshal(req)
	reqJSON = append(reqJSON, '\n')

	if _, err := testServerStdin.Write(reqJSON); err != nil {
		return err
	}

	resp, err := readServerResponse()
	if err != nil {
		return err
	}

	// Check for protocol error first
	if errField, ok := resp["error"].(map[string]interface{}); ok {
		tc.lastResponse = map[string]interface{}{
			"isError": true,
			"error":   errField,
		}
		return nil
	}

	if result, ok := resp["result"].(map[string]interface{}); ok {
		tc.lastResponse = result
	} else {
		return fmt.Errorf("invalid response format")
	}

	return nil
}

func (tc *TestContext) mcpServerRunning() error {
	// Server will be started when needed
	return nil
}

func (tc *TestContext) sendMCPInitialize() error {
	return tc.sendRequest("initialize", map[string]interface{}{})
}

func (tc *TestContext) checkValidInitResponse() error {
	if tc.lastResponse == nil {
		return fmt.Errorf("no response received")
	}
	if _, ok := tc.lastResponse["protocolVersion"]; !ok {
		return fmt.Errorf("protocolVersion missing")
	}
	return nil
}

func (tc *TestContext) checkProtocolVersion(version string) error {
	if tc.lastResponse == nil {
		return fmt.Errorf("no response received")
	}
	if v, ok := tc.lastResponse["protocolVersion"].(string); !ok || v != version {
		return fmt.Errorf("expected protocol version %s, got %v", version, tc.lastResponse["protocolVersion"])
	}
	return nil
}

func (tc *TestContext) checkServerName(name string) error {
	if tc.lastResponse == nil {
		return fmt.Errorf("no response received")
	}
	info, ok := tc.lastResponse["serverInfo"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("serverInfo missing")
	}
	if n, ok := info["name"].(string); !ok || n != name {
		return fmt.Errorf("expected server name %s, got %v", name, info["name"])
	}
	return nil
}

func (tc *TestContext) requestToolsList() error {
	return tc.sendRequest("tools/list", map[string]interface{}{})
}

func (tc *TestContext) requestResourcesList() error {
	return tc.sendRequest("resources/list", map[string]interface{}{})
}

func (tc *TestContext) readMCPResource(uri string) error {
	return tc.sendRequest("resources/read", map[string]interface{}{"uri": uri})
}

func (tc *TestContext) checkListContains(item string) error {
	if tc.lastResponse == nil {
		return fmt.Errorf("no response received")
	}

	// Check tools list
	if tools, ok := tc.lastResponse["tools"].([]interface{}); ok {
		for _, tool := range tools {
			toolMap := tool.(map[string]interface{})
			if name, ok := toolMap["name"].(string); ok && name == item {
				return nil
			}
		}
	}

	// Check resources list
	if resources, ok := tc.lastResponse["resources"].([]interface{}); ok {
		for _, resource := range resources {
			resourceMap := resource.(map[string]interface{})
			if uri, ok := resourceMap["uri"].(string); ok && uri == item {
				return nil
			}
			if name, ok := resourceMap["name"].(string); ok && name == item {
				return nil
			}
		}
	}

	return fmt.Errorf("item %s not found in list", item)
}

func (tc *TestContext) callMCPTool(tool string) error {
	return tc.sendRequest("tools/call", map[string]interface{}{
		"name":      tool,
		"arguments": map[string]interface{}{},
	})
}

func (tc *TestContext) callMCPToolWithTitleAndContent(tool, title, content string) error {
	return tc.sendRequest("tools/call", map[string]interface{}{
		"name": tool,
		"arguments": map[string]interface{}{
			"title":   title,
			"content": content,
		},
	})
}

func (tc *TestContext) callMCPToolWithQuery(tool, query string) error {
	return tc.sendRequest("tools/call", map[string]interface{}{
		"name": tool,
		"arguments": map[string]interface{}{
			"query": query,
		},
	})
}

func (tc *TestContext) callMCPToolWithPhrase(tool, phrase string) error {
	return tc.sendRequest("tools/call", map[string]interface{}{
		"name": tool,
		"arguments": map[string]interface{}{
			"phrase": phrase,
		},
	})
}

func (tc *TestContext) checkSuccessResponse() error {
	if tc.lastResponse == nil {
		return fmt.Errorf("no response received")
	}
	if isError, ok := tc.lastResponse["isError"].(bool); ok && isError {
		return fmt.Errorf("response indicates error")
	}
	return nil
}

func (tc *TestContext) checkErrorResponse() error {
	if tc.lastResponse == nil {
		return fmt.Errorf("no response received")
	}
	if isError, ok := tc.lastResponse["isError"].(bool); ok && isError {
		return nil
	}
	return fmt.Errorf("expected an error response, got success")
}

func (tc *TestContext) checkMemoryID() error {
	if tc.lastResponse == nil {
		return fmt.Errorf("no response received")
	}

	// Response format: {"content": [{"type": "text", "text": "{\"id\": \"...\", ...}"}]}
	content, ok := tc.lastResponse["content"].([]interface{})
	if ok {
		for _, item := range content {
			itemMap := item.(map[string]interface{})
			if text, ok := itemMap["text"].(string); ok {
				var result map[string]interface{}
				if err := json.Unmarshal([]byte(text), &result); err == nil {
					if id, ok := result["id"].(string); ok && id != "" {
						tc.storedMemoryID = id
						return nil
					}
				}
			}
		}
	}

	if tc.storedMemoryID != "" {
		return nil
	}

	return fmt.Errorf("no memory ID found in response")
}

func (tc *TestContext) checkResultsContain(content string) error {
	if tc.lastResponse == nil {
		return fmt.Errorf("no response received")
	}

	contentField, ok := tc.lastResponse["content"].([]interface{})
	if !ok {
		return fmt.Errorf("content field missing or wrong type")
	}

	for _, item := range contentField {
		itemMap := item.(map[string]interface{})
		if text, ok := itemMap["text"].(string); ok {
			if strings.Contains(text, content) {
				return nil
			}
		}
	}

	return fmt.Errorf("content %s not found in results", content)
}

func (tc *TestContext) responseValidJSON() error {
	if tc.lastResponse == nil {
		return fmt.Errorf("no response received")
	}
	// Response is already parsed as JSON, so it's valid
	return nil
}

func (tc *TestContext) receiveRecentMemories() error {
	if tc.lastResponse == nil {
		return fmt.Errorf("no response received")
	}
	return nil
}

func (tc *TestContext) receiveMemoryStats() error {
	if tc.lastResponse == nil {
		return fmt.Errorf("no response received")
	}
	return nil
}

// responseTextContains looks for a substring in text content or resource contents
func (tc *TestContext) responseTextContains(needle string) error {
	if tc.lastResponse == nil {
		return fmt.Errorf("no response received")
	}

	if content, ok := tc.lastResponse["content"].([]interface{}); ok {
		for _, item := range content {
			itemMap := item.(map[string]interface{})
			if text, ok := itemMap["text"].(string); ok && strings.Contains(text, needle) {
				return nil
			}
		}
	}

	if contents, ok := tc.lastResponse["contents"].([]interface{}); ok {
		for _, item := range contents {
			itemMap := item.(map[string]interface{})
			if text, ok := itemMap["text"].(string); ok && strings.Contains(text, needle) {
				return nil
			}
		}
	}

	return fmt.Errorf("%s not found in response", needle)
}

func (tc *TestContext) responseContainsTotalMemories() error {
	return tc.responseTextContains("total_memories")
}

func (tc *TestContext) responseContainsDatabaseSize() error {
	return tc.responseTextContains("database_size")
}

// Memory seeding steps

func (tc *TestContext) memoryStoreInitialized() error {
	// Reset store between scenarios for isolation
	if testStore != nil {
		testStore.Close()
		testStore = nil
	}
	if testServerCmd != nil {
		_ = testServerCmd.Process.Kill()
		testServerCmd = nil
		testServerStdin = nil
		testServerReader = nil
	}

	tmpDir, err := os.MkdirTemp("", "limbic-test-store-*")
	if err != nil {
		return err
	}
	if err := os.Setenv("LIMBIC_DATA_DIR", tmpDir); err != nil {
		return err
	}

	return ensureTestStore()
}

func (tc *TestContext) storeMemory(title, content string) error {
	if err := ensureTestStore(); err != nil {
		return err
	}

	mem, err := testStore.Create(tc.ctx, memory.CreateParams{
		Title:   title,
		Content: content,
	})
	if err != nil {
		return err
	}

	tc.storedMemoryID = mem.ID
	return nil
}

func (tc *TestContext) storeMultipleMemories(count int) error {
	if err := ensureTestStore(); err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		_, err := testStore.Create(tc.ctx, memory.CreateParams{
			Title:   fmt.Sprintf("Test memory %d", i),
			Content: fmt.Sprintf("Test memory content %d", i),
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (tc *TestContext) storedMemoriesWithTagCount(count int, tags string) error {
	if err := ensureTestStore(); err != nil {
		return err
	}

	tagList := []string{}
	if tags != "" {
		for _, t := range strings.Split(tags, ",") {
			tagList = append(tagList, strings.TrimSpace(t))
		}
	}

	for i := 0; i < count; i++ {
		_, err := testStore.Create(tc.ctx, memory.CreateParams{
			Title:   fmt.Sprintf("Tagged memory %d", i),
			Content: fmt.Sprintf("Tagged memory content %d", i),
			Tags:    tagList,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (tc *TestContext) storeMemoryWithTrigger(phrase string) error {
	if err := ensureTestStore(); err != nil {
		return err
	}

	mem, err := testStore.Create(tc.ctx, memory.CreateParams{
		Title:    "Triggered memory",
		Content:  "Surfaces when the phrase comes up",
		Triggers: []string{phrase},
	})
	if err != nil {
		return err
	}

	tc.storedMemoryID = mem.ID
	return nil
}

func (tc *TestContext) memoryTaggedWith(tag string) error {
	if testStore == nil {
		return fmt.Errorf("store not initialized")
	}

	page, err := testStore.Search(tc.ctx, memory.SearchOptions{Tags: []string{tag}})
	if err != nil {
		return err
	}

	if page.Total == 0 {
		return fmt.Errorf("no memories found with tag '%s'", tag)
	}

	return nil
}

// CLI steps

// ensureCLIBinary ensures the limbic binary exists (builds if needed); does not start MCP server.
func ensureCLIBinary() (string, error) {
	binaryPath := os.Getenv("LIMBIC_TEST_BINARY")
	if binaryPath != "" {
		if _, err := os.Stat(binaryPath); err == nil {
			return binaryPath, nil
		}
	}
	// Check CWD (e.g. limbic/test/acceptance) and module root
	for _, p := range []string{"./limbic", "../../limbic", "/tmp/limbic-test"} {
		if _, err := os.Stat(p); err == nil {
			abs, _ := filepath.Abs(p)
			return abs, nil
		}
	}
	cmd := exec.Command("go", "build", "-o", "/tmp/limbic-test", ".")
	cmd.Dir = filepath.Join("..", "..")
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to build test binary: %w", err)
	}
	return "/tmp/limbic-test", nil
}

// runCLICommand runs a CLI command (e.g. "limbic status") and stores stdout, stderr, exit code.
func (tc *TestContext) runCLICommand(cmdLine string) error {
	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return fmt.Errorf("empty command")
	}
	var cmd *exec.Cmd
	if parts[0] == "limbic" && len(parts) > 1 {
		binaryPath, err := ensureCLIBinary()
		if err != nil {
			return err
		}
		cmd = exec.Command(binaryPath, parts[1:]...)
		cmd.Env = os.Environ()
		if dataDir := os.Getenv("LIMBIC_DATA_DIR"); dataDir != "" {
			cmd.Env = append(cmd.Env, "LIMBIC_DATA_DIR="+dataDir)
		} else {
			tmpDir, _ := os.MkdirTemp("", "limbic-test-*")
			cmd.Env = append(cmd.Env, "LIMBIC_DATA_DIR="+tmpDir)
			os.Setenv("LIMBIC_DATA_DIR", tmpDir)
		}
	} else {
		// System command
		cmd = exec.Command(parts[0], parts[1:]...)
		cmd.Env = os.Environ()
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	tc.lastCLIStdout = stdout.String()
	tc.lastCLIStderr = stderr.String()
	if exitErr, ok := err.(*exec.ExitError); ok {
		tc.lastCLIExitCode = exitErr.ExitCode()
	} else if err != nil {
		tc.lastCLIExitCode = -1
		return err
	} else {
		tc.lastCLIExitCode = 0
	}
	return nil
}

func (tc *TestContext) limbicInstalled() error {
	_, err := ensureCLIBinary()
	if err != nil {
		return err
	}
	if os.Getenv("LIMBIC_DATA_DIR") == "" {
		tmpDir, _ := os.MkdirTemp("", "limbic-test-*")
		os.Setenv("LIMBIC_DATA_DIR", tmpDir)
	}
	return nil
}

func (tc *TestContext) checkCommandSucceeded() error {
	if tc.lastCLIExitCode != 0 {
		return fmt.Errorf("expected exit code 0, got %d; stderr: %s", tc.lastCLIExitCode, tc.lastCLIStderr)
	}
	return nil
}

func (tc *TestContext) checkCommandFailed() error {
	if tc.lastCLIExitCode == 0 {
		return fmt.Errorf("expected command to fail but it succeeded; stdout: %s", tc.lastCLIStdout)
	}
	return nil
}

func (tc *TestContext) outputShouldContain(text string) error {
	combined := tc.lastCLIStdout + tc.lastCLIStderr
	if !strings.Contains(combined, text) {
		return fmt.Errorf("output did not contain %q; stdout: %s stderr: %s", text, tc.lastCLIStdout, tc.lastCLIStderr)
	}
	return nil
}

func (tc *TestContext) errorShouldContain(text string) error {
	errOut := tc.lastCLIStderr
	if errOut == "" {
		errOut = tc.lastCLIStdout
	}
	if !strings.Contains(strings.ToLower(errOut), strings.ToLower(text)) {
		return fmt.Errorf("error output did not contain %q; stderr: %s", text, tc.lastCLIStderr)
	}
	return nil
}
