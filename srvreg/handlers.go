package srvreg

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rivulet/traceledger/ledger"
)

var defaultHeaders = map[string]string{"Content-Type": "application/json"}

// ledgerErrorResponse maps a ledger error code to an HTTP response.
func ledgerErrorResponse(lerr *ledger.LedgerError) (*Response, error) {
	statusCode := http.StatusInternalServerError
	switch lerr.Code {
	case ledger.ErrCodeValidation:
		statusCode = http.StatusBadRequest
	case ledger.ErrCodeNotFound:
		statusCode = http.StatusNotFound
	case ledger.ErrCodeDuplicateHash:
		statusCode = http.StatusConflict
	case ledger.ErrCodeWriteFailed, ledger.ErrCodeReadFailed:
		statusCode = http.StatusInternalServerError
	}
	return &Response{
		StatusCode: statusCode,
		Headers:    defaultHeaders,
		Body:       fmt.Sprintf(`{"error":%q}`, lerr.Message),
	}, fmt.Errorf("%s: %s", lerr.Code, lerr.Detail)
}

func jsonResponse(statusCode int, payload any) (*Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders,
			Body:       `{"error":"Internal server error"}`,
		}, err
	}
	return &Response{
		StatusCode: statusCode,
		Headers:    defaultHeaders,
		Body:       string(raw),
	}, nil
}

func invalidBodyResponse(err error) (*Response, error) {
	return &Response{
		StatusCode: http.StatusUnprocessableEntity,
		Headers:    defaultHeaders,
		Body:       fmt.Sprintf(`{"error":"Invalid body format: %s"}`, err.Error()),
	}, fmt.Errorf("invalid body format")
}

// productIDFromPath extracts the :id segment of paths like /api/product/:id/...
func productIDFromPath(path string, minParts int) (uint64, *Response) {
	pathParts := strings.Split(path, "/")
	if len(pathParts) < minParts {
		return 0, &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       `{"error":"Invalid path format"}`,
		}
	}
	id, err := strconv.ParseUint(pathParts[3], 10, 64)
	if err != nil || id == 0 {
		return 0, &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       `{"error":"Product ID must be a positive integer"}`,
		}
	}
	return id, nil
}

// RegisterProductHandler handles POST /api/register
func (sr *ServiceRegistry) RegisterProductHandler(req *Request) (*Response, error) {
	var body ledger.RegisterInput
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return invalidBodyResponse(err)
	}

	productID, lerr := sr.ledger.Register(body)
	if lerr != nil {
		return ledgerErrorResponse(lerr)
	}

	return jsonResponse(http.StatusCreated, map[string]any{
		"message":   "Registered successfully!",
		"productId": productID,
	})
}

// GetProductHandler handles GET /api/product/:id
func (sr *ServiceRegistry) GetProductHandler(req *Request) (*Response, error) {
	productID, errResp := productIDFromPath(req.Path, 4)
	if errResp != nil {
		return errResp, fmt.Errorf("invalid path format")
	}

	record, lerr := sr.ledger.GetFullRecord(productID)
	if lerr != nil {
		return ledgerErrorResponse(lerr)
	}

	return jsonResponse(http.StatusOK, record)
}

type addCheckpointHandlerBody struct {
	Step       string `json:"step"`
	Location   string `json:"location"`
	Status     string `json:"status"`
	Metadata   string `json:"metadata"`
	RecordedBy string `json:"recordedBy"`
}

// AddCheckpointHandler handles POST /api/product/:id/checkpoint
func (sr *ServiceRegistry) AddCheckpointHandler(req *Request) (*Response, error) {
	productID, errResp := productIDFromPath(req.Path, 5)
	if errResp != nil {
		return errResp, fmt.Errorf("invalid path format")
	}

	var body addCheckpointHandlerBody
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return invalidBodyResponse(err)
	}

	timestamp, lerr := sr.ledger.AddCheckpoint(productID, body.Step, body.Location, body.Status, body.Metadata, body.RecordedBy)
	if lerr != nil {
		return ledgerErrorResponse(lerr)
	}

	return jsonResponse(http.StatusCreated, map[string]any{
		"message":   "Checkpoint recorded",
		"timestamp": timestamp,
	})
}

// AddCertificationHandler handles POST /api/product/:id/certification
func (sr *ServiceRegistry) AddCertificationHandler(req *Request) (*Response, error) {
	productID, errResp := productIDFromPath(req.Path, 5)
	if errResp != nil {
		return errResp, fmt.Errorf("invalid path format")
	}

	var body ledger.CertificationInput
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return invalidBodyResponse(err)
	}

	if lerr := sr.ledger.AddCertification(productID, body); lerr != nil {
		return ledgerErrorResponse(lerr)
	}

	return jsonResponse(http.StatusCreated, map[string]any{
		"message": "Certification recorded",
	})
}

// ProductStatsHandler handles GET /api/product/:id/stats
func (sr *ServiceRegistry) ProductStatsHandler(req *Request) (*Response, error) {
	productID, errResp := productIDFromPath(req.Path, 5)
	if errResp != nil {
		return errResp, fmt.Errorf("invalid path format")
	}

	journey, lerr := sr.ledger.GetJourney(productID)
	if lerr != nil {
		return ledgerErrorResponse(lerr)
	}

	return jsonResponse(http.StatusOK, ledger.StatsForJourney(journey))
}

// ScanHashHandler handles GET /api/scan/:hash, resolving a scanned QR hash to
// the product's full record.
func (sr *ServiceRegistry) ScanHashHandler(req *Request) (*Response, error) {
	pathParts := strings.Split(req.Path, "/")
	if len(pathParts) != 4 || pathParts[3] == "" {
		return &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       `{"error":"Invalid path format"}`,
		}, fmt.Errorf("invalid path format")
	}
	hash := pathParts[3]

	record, lerr := sr.ledger.GetByHash(hash)
	if lerr != nil {
		return ledgerErrorResponse(lerr)
	}

	return jsonResponse(http.StatusOK, record)
}

type verifyHandlerBody struct {
	ProductID uint64            `json:"productId"`
	QRHash    string            `json:"qrHash"`
	Payload   *ledger.QRPayload `json:"payload"`
}

// VerifyHandler handles POST /api/verify. Callers supply either the hash
// itself or the raw QR payload, which is hashed with the same canonical
// function used at registration.
func (sr *ServiceRegistry) VerifyHandler(req *Request) (*Response, error) {
	var body verifyHandlerBody
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return invalidBodyResponse(err)
	}

	if body.ProductID == 0 {
		return &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       `{"error":"productId is required"}`,
		}, fmt.Errorf("productId is required")
	}

	hash := body.QRHash
	if hash == "" {
		if body.Payload == nil {
			return &Response{
				StatusCode: http.StatusBadRequest,
				Headers:    defaultHeaders,
				Body:       `{"error":"qrHash or payload is required"}`,
			}, fmt.Errorf("qrHash or payload is required")
		}
		hash = ledger.ComputeHash(*body.Payload)
	}

	isAuthentic, lerr := sr.ledger.Verify(body.ProductID, hash)
	if lerr != nil {
		return ledgerErrorResponse(lerr)
	}

	message := "QR code is authentic"
	if !isAuthentic {
		message = "QR code verification failed"
	}
	return jsonResponse(http.StatusOK, map[string]any{
		"isAuthentic": isAuthentic,
		"qrHash":      hash,
		"message":     message,
	})
}

// ListProductsHandler handles GET /api/products from the relational mirror.
func (sr *ServiceRegistry) ListProductsHandler(req *Request) (*Response, error) {
	if sr.repository == nil {
		return &Response{
			StatusCode: http.StatusServiceUnavailable,
			Headers:    defaultHeaders,
			Body:       `{"error":"Product listing requires the relational mirror"}`,
		}, fmt.Errorf("relational mirror disabled")
	}

	products, dbErr := sr.repository.ListProducts(0, 20)
	if dbErr != nil {
		sr.logger.Error("Failed to list products", "code", dbErr.Code, "err", dbErr.Detail)
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders,
			Body:       `{"error":"Internal server error"}`,
		}, nil
	}

	return jsonResponse(http.StatusOK, map[string]any{
		"products": products,
	})
}
