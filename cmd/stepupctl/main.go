package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// client habla con el API del servicio (admin y step-up).
type client struct {
	BaseURL   string
	APIKey    string
	Bearer    string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	u := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, u, strings.NewReader(string(body)))
	if err != nil {
		return 0, nil, err
	}
	if c.APIKey != "" {
		req.Header.Set("X-Admin-API-Key", c.APIKey)
	}
	if c.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.Bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("STEPUP_URL", "http://localhost:8080")
		apiKey  = envOr("STEPUP_ADMIN_KEY", "")
		bearer  = envOr("STEPUP_BEARER", "")
		out     = envOr("STEPUP_OUT", "text")
	)

	cl := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}

	root := &cobra.Command{
		Use:   "stepupctl",
		Short: "CLI de operación para el servicio de step-up",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cl.BaseURL = baseURL
			cl.APIKey = apiKey
			cl.Bearer = bearer
			cl.OutFormat = out
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "base URL del servicio (env STEPUP_URL)")
	root.PersistentFlags().StringVar(&apiKey, "admin-api-key", apiKey, "API key admin (env STEPUP_ADMIN_KEY)")
	root.PersistentFlags().StringVar(&bearer, "bearer", bearer, "bearer token de usuario (env STEPUP_BEARER)")
	root.PersistentFlags().StringVar(&out, "out", out, "formato de salida: json|text")

	// ─── blocks ───
	var blocksUser string
	var blocksLimit int
	blocksCmd := &cobra.Command{
		Use:   "blocks",
		Short: "Lista bloqueos vigentes (vía /v1/admin/blocks)",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if blocksUser != "" {
				q.Set("user_id", blocksUser)
			}
			if blocksLimit > 0 {
				q.Set("limit", fmt.Sprint(blocksLimit))
			}
			path := "/v1/admin/blocks"
			if enc := q.Encode(); enc != "" {
				path += "?" + enc
			}
			status, body, err := cl.do(http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}
	blocksCmd.Flags().StringVar(&blocksUser, "user", "", "filtrar por user id (UUID)")
	blocksCmd.Flags().IntVar(&blocksLimit, "limit", 0, "máximo de filas")
	root.AddCommand(blocksCmd)

	// ─── send-code ───
	var sendAction string
	sendCmd := &cobra.Command{
		Use:   "send-code",
		Short: "Pide un código de step-up para el usuario del bearer",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]string{"action": sendAction})
			status, resp, err := cl.do(http.MethodPost, "/v1/step-up/send-code", body)
			if err != nil {
				return err
			}
			cl.print(status, resp)
			return nil
		},
	}
	sendCmd.Flags().StringVar(&sendAction, "action", "", "acción gateada (requerido)")
	_ = sendCmd.MarkFlagRequired("action")
	root.AddCommand(sendCmd)

	// ─── verify-code ───
	var verifyAction, verifyCode string
	verifyCmd := &cobra.Command{
		Use:   "verify-code",
		Short: "Verifica un código de step-up",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]string{"action": verifyAction, "code": verifyCode})
			status, resp, err := cl.do(http.MethodPost, "/v1/step-up/verify-code", body)
			if err != nil {
				return err
			}
			cl.print(status, resp)
			return nil
		},
	}
	verifyCmd.Flags().StringVar(&verifyAction, "action", "", "acción gateada (requerido)")
	verifyCmd.Flags().StringVar(&verifyCode, "code", "", "código recibido (requerido)")
	_ = verifyCmd.MarkFlagRequired("action")
	_ = verifyCmd.MarkFlagRequired("code")
	root.AddCommand(verifyCmd)

	// ─── status ───
	var statusAction string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Consulta ventana verificada / bloqueo para una acción",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, resp, err := cl.do(http.MethodGet,
				"/v1/step-up/status?action="+url.QueryEscape(statusAction), nil)
			if err != nil {
				return err
			}
			cl.print(status, resp)
			return nil
		},
	}
	statusCmd.Flags().StringVar(&statusAction, "action", "", "acción gateada (requerido)")
	_ = statusCmd.MarkFlagRequired("action")
	root.AddCommand(statusCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
