package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dosetrack/dosetrack-api/internal/middleware"
	"github.com/dosetrack/dosetrack-api/internal/models"
)

const geminiURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
	} `json:"candidates"`
}

// HandleChat proxies a chat message to Gemini with the caller's current
// medications injected into the system prompt, so the assistant can answer
// schedule questions without the client resending its data.
func (h *Handler) HandleChat(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "message is required"})
		return
	}

	actor := middleware.CurrentUser(c)
	medContext := h.medicationContext(context.TODO(), actor)

	systemPrompt := fmt.Sprintf(`You are a friendly assistant for the DoseTrack medication-adherence app. Follow these rules:
1. Help the user understand their medication schedule and encourage adherence.
2. The user's current medications are:
%s
3. Never give medical advice beyond general adherence tips. For dosage changes, side effects or any clinical question, tell the user to contact their healthcare provider.
4. Do not invent medications, dosages or schedules that are not listed above.
5. Keep answers short and practical.`, medContext)

	requestBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: systemPrompt}}},
			{Role: "model", Parts: []geminiPart{{Text: "Understood. I will only discuss the listed medications and general adherence, and refer clinical questions to the user's provider."}}},
			{Role: "user", Parts: []geminiPart{{Text: req.Message}}},
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to build AI request"})
		return
	}

	url := geminiURL + "?key=" + os.Getenv("GEMINI_API_KEY")
	httpReq, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to build AI request"})
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to reach AI service"})
		return
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to read AI response"})
		return
	}

	if httpResp.StatusCode != http.StatusOK {
		log.Printf("AI service error (%d): %s", httpResp.StatusCode, string(respBody))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "AI service returned an error"})
		return
	}

	var aiResp geminiResponse
	if err := json.Unmarshal(respBody, &aiResp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to parse AI response"})
		return
	}

	if len(aiResp.Candidates) > 0 && len(aiResp.Candidates[0].Content.Parts) > 0 {
		c.JSON(http.StatusOK, gin.H{"message": aiResp.Candidates[0].Content.Parts[0].Text})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"message": "AI returned an empty response"})
}

// medicationContext summarizes the actor's active medications for the prompt.
func (h *Handler) medicationContext(ctx context.Context, actor *models.User) string {
	cursor, err := h.DB.Collection("medications").Find(ctx, bson.M{
		"patient":  actor.ID,
		"isActive": true,
	})
	if err != nil {
		return "   (medication list unavailable)"
	}
	defer cursor.Close(ctx)

	var medications []models.Medication
	if err := cursor.All(ctx, &medications); err != nil || len(medications) == 0 {
		return "   (no active medications on file)"
	}

	var b strings.Builder
	for _, med := range medications {
		times := make([]string, 0, len(med.Schedule))
		for _, entry := range med.Schedule {
			times = append(times, entry.Time)
		}
		fmt.Fprintf(&b, "   - %s, %s, %s at %s\n", med.Name, med.Dosage, med.Frequency, strings.Join(times, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
