//go:build ignore

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{} // No timeout: streams stay open
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

// streamRequest POSTs and prints SSE frames until the stream closes.
func streamRequest(url, token string, body interface{}) error {
	jsonBody, _ := json.Marshal(body)
	req, err := http.NewRequest("POST", baseURL+url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.Header.Get("Content-Type") != "text/event-stream" {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("expected SSE, got %s: %s", resp.Status, b)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		var ev map[string]interface{}
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			color.Red("  unparseable frame: %s", payload)
			continue
		}
		switch ev["type"] {
		case "token":
			fmt.Print(ev["text"])
		case "done":
			fmt.Println()
			color.Green("  [done]")
		case "error":
			fmt.Println()
			color.Red("  [error] %v", ev["message"])
		default:
			fmt.Println()
			color.Blue("  [%v] %s", ev["type"], payload)
		}
	}
	return scanner.Err()
}

func main() {
	color.Cyan("🚀 Starting 9anonAI API Smoke Test\n")

	email := fmt.Sprintf("smoke+%d@9anon.ai", os.Getpid())

	// 1. Register
	color.Yellow("\n[AUTH] 1. Register")
	resp, body, err := sendRequest("POST", "/auth/v1/register", "", map[string]interface{}{
		"full_name": "Smoke Tester",
		"email":     email,
		"password":  "smoketest-123",
		"language":  "fr",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)

	// 2. Login
	color.Yellow("\n[AUTH] 2. Login")
	resp, body, err = sendRequest("POST", "/auth/v1/login", "", map[string]interface{}{
		"email":    email,
		"password": "smoketest-123",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var loginResp map[string]interface{}
	json.Unmarshal(body, &loginResp)
	prettyPrint(loginResp)

	var token string
	if data, ok := loginResp["data"].(map[string]interface{}); ok {
		if t, ok := data["access_token"].(string); ok {
			token = t
		}
	}
	if token == "" {
		color.Red("No access token in login response")
		os.Exit(1)
	}

	// 3. Create advice session
	color.Yellow("\n[ADVICE] 3. Create Session")
	resp, body, err = sendRequest("POST", "/advice/v1/session", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var sessionResp map[string]interface{}
	json.Unmarshal(body, &sessionResp)
	prettyPrint(sessionResp)

	var sessionID string
	if data, ok := sessionResp["data"].(map[string]interface{}); ok {
		if id, ok := data["id"].(string); ok {
			sessionID = id
		}
	}

	// 4. Stream one advice turn
	color.Yellow("\n[ADVICE] 4. Stream Chat (SSE)")
	err = streamRequest("/advice/v1/chat/stream", token, map[string]interface{}{
		"session_id": sessionID,
		"message":    "Quels sont les droits d'un salarié licencié sans préavis au Maroc ?",
	})
	if err != nil {
		color.Red("Stream failed: %v", err)
	}

	// 5. History should now hold both turns
	color.Yellow("\n[ADVICE] 5. Get History")
	resp, body, err = sendRequest("GET", "/advice/v1/session/"+sessionID+"/history", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var historyResp map[string]interface{}
	json.Unmarshal(body, &historyResp)
	prettyPrint(historyResp)

	// 6. Contract session + drafting turn
	color.Yellow("\n[CONTRACT] 6. Create Session")
	resp, body, err = sendRequest("POST", "/contract/v1/session", token, map[string]interface{}{
		"contract_type": "employment",
		"title":         "CDI développeur",
		"language":      "fr",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var contractResp map[string]interface{}
	json.Unmarshal(body, &contractResp)
	prettyPrint(contractResp)

	var contractID string
	if data, ok := contractResp["data"].(map[string]interface{}); ok {
		if id, ok := data["id"].(string); ok {
			contractID = id
		}
	}

	color.Yellow("\n[CONTRACT] 7. Stream Drafting Turn (SSE)")
	err = streamRequest("/contract/v1/session/"+contractID+"/message/stream", token, map[string]interface{}{
		"message": "Rédige un contrat de travail CDI pour un développeur, salaire 15000 MAD, période d'essai 3 mois.",
	})
	if err != nil {
		color.Red("Stream failed: %v", err)
	}

	// 8. Profile shows remaining quotas
	color.Yellow("\n[AUTH] 8. Profile (quota check)")
	resp, body, err = sendRequest("GET", "/auth/v1/profile", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var profileResp map[string]interface{}
	json.Unmarshal(body, &profileResp)
	prettyPrint(profileResp)

	color.Cyan("\n✅ Smoke test finished")
}
