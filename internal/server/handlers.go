package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clinstack/patient-risk-api/internal/frame"
	"github.com/clinstack/patient-risk-api/internal/predict"
)

type predictResponse struct {
	RiskProbability []float64           `json:"risk_probability"`
	RiskPrediction  []int               `json:"risk_prediction"`
	RiskLevel       []string            `json:"risk_level"`
	Top20Features   []*frame.FeatureMap `json:"top20_features"`
	Explanation     *string             `json:"explanation"`
}

type patientResponse struct {
	RiskProbability float64           `json:"risk_probability"`
	RiskPrediction  int               `json:"risk_prediction"`
	RiskLevel       string            `json:"risk_level"`
	Top20Features   *frame.FeatureMap `json:"top20_features"`
	Explanation     *string           `json:"explanation"`
}

// handlePredict accepts a CSV file upload, a json_payload form field, or a
// JSON body with a records list, in that precedence order.
func (s *Server) handlePredict(c *gin.Context) {
	f, ok := s.parseInput(c)
	if !ok {
		return
	}

	if f.NumRows() == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty input data"})
		return
	}
	if f.NumCols() == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input data has no columns"})
		return
	}

	sum, err := s.predictor.Infer(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Prediction failed: %s", err),
		})
		return
	}

	c.JSON(http.StatusOK, predictResponse{
		RiskProbability: sum.RiskProbability,
		RiskPrediction:  sum.RiskPrediction,
		RiskLevel:       sum.RiskLevel,
		Top20Features:   sum.TopFeatures,
		Explanation:     s.explanation(c, sum),
	})
}

// handlePredictPatient scores a single flat patient object and returns the
// flattened, scalar form of the batch response.
func (s *Server) handlePredictPatient(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON: empty body"})
		return
	}

	rec, err := frame.RecordFromJSON(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid JSON: %s", err)})
		return
	}

	f := frame.FromRecords([]frame.Record{rec})
	if f.NumCols() == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input data has no columns"})
		return
	}

	sum, err := s.predictor.Infer(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Patient prediction failed: %s", err),
		})
		return
	}

	c.JSON(http.StatusOK, patientResponse{
		RiskProbability: sum.RiskProbability[0],
		RiskPrediction:  sum.RiskPrediction[0],
		RiskLevel:       sum.RiskLevel[0],
		Top20Features:   sum.TopFeatures[0],
		Explanation:     s.explanation(c, sum),
	})
}

// parseInput resolves the three accepted input shapes into a frame. On
// failure it writes the 400 response itself and returns ok=false.
func (s *Server) parseInput(c *gin.Context) (*frame.Frame, bool) {
	if file, err := c.FormFile("file"); err == nil {
		if !strings.HasSuffix(strings.ToLower(file.Filename), ".csv") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File must be a CSV"})
			return nil, false
		}
		fh, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to parse CSV: %s", err)})
			return nil, false
		}
		defer fh.Close()
		f, err := frame.FromCSV(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to parse CSV: %s", err)})
			return nil, false
		}
		return f, true
	}

	if payload := c.PostForm("json_payload"); payload != "" {
		return s.recordsFrame(c, []byte(payload))
	}

	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": `No input provided. Use file upload, json_payload, or JSON body with {"records": [...]}.`,
		})
		return nil, false
	}
	return s.recordsFrame(c, body)
}

func (s *Server) recordsFrame(c *gin.Context, data []byte) (*frame.Frame, bool) {
	recs, err := frame.RecordsFromPayload(data)
	if errors.Is(err, frame.ErrNoRecords) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "records must be a non-empty list"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid JSON: %s", err)})
		return nil, false
	}
	return frame.FromRecords(recs), true
}

// explanation narrates the batch, mapping the degraded "no explanation"
// outcome to a JSON null.
func (s *Server) explanation(c *gin.Context, sum *predict.Summary) *string {
	text := s.explainer.Explain(c.Request.Context(), sum)
	if text == "" {
		return nil
	}
	return &text
}
