package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kumolabai/upctl/pkg/config"
	"github.com/spf13/cobra"
)

// MCPServerConfig represents a single MCP server configuration
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

// MCPClientConfig is the subset of an LLM client's config file upctl edits.
// Other top-level keys and other servers' entries are kept as they were read.
type MCPClientConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
	Other      map[string]json.RawMessage `json:"-"`
}

func (c *MCPClientConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if servers, ok := raw["mcpServers"]; ok {
		if err := json.Unmarshal(servers, &c.MCPServers); err != nil {
			return err
		}
		delete(raw, "mcpServers")
	}
	c.Other = raw

	return nil
}

func (c MCPClientConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(c.Other)+1)
	for k, v := range c.Other {
		out[k] = v
	}
	out["mcpServers"] = c.MCPServers
	return json.Marshal(out)
}

const defaultServerEntry = "up-banking"

var configureCmd = &cobra.Command{
	Use:   "configure [server-name]",
	Short: "Generate MCP server configuration for LLM clients",
	Long: `Generate and optionally install MCP server configuration for various LLM clients.
This command registers "upctl serve" as an MCP server in your LLM client.

Supported clients:
- Claude Desktop (default)
- Cursor

Examples:
  # Register with Claude Desktop under the name "up-banking"
  upctl configure --token "$UP_API_TOKEN"

  # Print the configuration without installing
  upctl configure --dry-run my-bank

  # Specify custom client
  upctl configure --client=cursor`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigure,
}

var (
	dryRun         bool
	client         string
	configureToken string
)

func init() {
	rootCmd.AddCommand(configureCmd)

	configureCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print configuration without installing")
	configureCmd.Flags().StringVar(&client, "client", "claude-desktop", "Target LLM client (claude-desktop, cursor)")
	configureCmd.Flags().StringVar(&configureToken, "token", "", "Up API token to store in the client's env block for "+config.EnvToken)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	serverName := defaultServerEntry
	if len(args) == 1 {
		serverName = args[0]
	}

	command, commandArgs, err := getUpctlCommand()
	if err != nil {
		return fmt.Errorf("failed to locate upctl executable: %w", err)
	}

	if configPath != "" {
		absConfig, err := filepath.Abs(configPath)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for config file: %w", err)
		}
		commandArgs = append(commandArgs, "--config", absConfig)
	}

	server := MCPServerConfig{Command: command, Args: commandArgs}
	if configureToken != "" {
		server.Env = map[string]string{config.EnvToken: configureToken}
	}

	// Generate configuration based on client
	switch strings.ToLower(client) {
	case "claude-desktop":
		configFile := filepath.Join(getClaudeDesktopConfigDir(), "claude_desktop_config.json")
		if err := configureMCPClient(cmd, configFile, serverName, server); err != nil {
			return err
		}
		if !dryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully configured MCP server '%s' for Claude Desktop\n", serverName)
			fmt.Fprintf(cmd.OutOrStdout(), "Please restart Claude Desktop for changes to take effect.\n")
		}
	case "cursor":
		configFile := filepath.Join(getCursorConfigDir(), "mcp.json")
		if err := configureMCPClient(cmd, configFile, serverName, server); err != nil {
			return err
		}
		if !dryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully configured MCP server '%s' for Cursor\n", serverName)
		}
	default:
		return fmt.Errorf("unsupported client: %s", client)
	}

	return nil
}

// getUpctlCommand returns how an LLM client should launch the server.
func getUpctlCommand() (string, []string, error) {
	// Running with 'go run': point the client at the module instead of the
	// temporary binary.
	executable, err := os.Executable()
	if err != nil {
		return "", nil, err
	}
	if strings.Contains(executable, "go-build") {
		wd, err := os.Getwd()
		if err != nil {
			return "", nil, err
		}
		return "go", []string{"run", wd, "serve"}, nil
	}

	return executable, []string{"serve"}, nil
}

func getClaudeDesktopConfigDir() string {
	switch runtime.GOOS {
	case "darwin": // macOS
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Claude")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, _ := os.UserHomeDir()
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Claude")
	default: // Linux and others
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "claude")
	}
}

func getCursorConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cursor")
}

func getMCPClientConfig(configFile string, serverName string, server MCPServerConfig) (*MCPClientConfig, error) {
	// Read existing configuration
	var cfg MCPClientConfig
	if data, err := os.ReadFile(configFile); err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse existing config: %w", err)
		}
	}

	// Initialize mcpServers if it doesn't exist
	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	// Add or update the server
	entry, err := json.Marshal(server)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal server entry: %w", err)
	}
	cfg.MCPServers[serverName] = entry

	return &cfg, nil
}

func configureMCPClient(cmd *cobra.Command, configFile string, serverName string, server MCPServerConfig) error {
	cfg, err := getMCPClientConfig(configFile, serverName, server)
	if err != nil {
		return err
	}

	configJSON, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", configJSON)
		return nil
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file may now hold the Up token.
	if err := os.WriteFile(configFile, configJSON, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}
