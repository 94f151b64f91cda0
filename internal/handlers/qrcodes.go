package handlers

import (
	"context"

	"github.com/serroba/shortlink-go/internal/qrcode"
	"github.com/serroba/shortlink-go/internal/shortener"
	"go.uber.org/zap"
)

// QRCodeHandler serves the owner's QR codes.
type QRCodeHandler struct {
	qrcodes *qrcode.Service
	baseURL string
	logger  *zap.Logger
}

// NewQRCodeHandler creates a new QR code handler.
func NewQRCodeHandler(qrcodes *qrcode.Service, baseURL string, logger *zap.Logger) *QRCodeHandler {
	return &QRCodeHandler{qrcodes: qrcodes, baseURL: baseURL, logger: logger}
}

func (h *QRCodeHandler) Create(ctx context.Context, req *CreateQRCodeRequest) (*CreateQRCodeResponse, error) {
	ownerID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	in := qrcode.Create{
		LinkShortCode: req.Body.LinkShortCode,
		Image:         req.Body.QRCode.Image,
		Customization: req.Body.QRCode.Customization,
	}

	if req.Body.LinkToCreate != nil {
		link := toCreateLink(*req.Body.LinkToCreate)
		in.LinkToCreate = &link
	}

	qr, err := h.qrcodes.Create(ctx, in, ownerID)
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	resp := &CreateQRCodeResponse{}
	resp.Body.CreatedItem = h.qrCodeBody(qr)

	return resp, nil
}

func (h *QRCodeHandler) List(ctx context.Context, req *ListRequest) (*ListQRCodesResponse, error) {
	ownerID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	items, pagination, err := h.qrcodes.List(ctx, ownerID, shortener.Page{Number: req.Page, Size: req.PageSize})
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	resp := &ListQRCodesResponse{}
	resp.Body.Items = make([]QRCodeBody, 0, len(items))

	for i := range items {
		resp.Body.Items = append(resp.Body.Items, h.qrCodeBody(&items[i]))
	}

	resp.Body.Pagination = paginationBody(pagination)

	return resp, nil
}

func (h *QRCodeHandler) Details(ctx context.Context, req *QRCodeIDRequest) (*QRCodeResponse, error) {
	ownerID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	qr, err := h.qrcodes.Get(ctx, req.ID, ownerID)
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	resp := &QRCodeResponse{}
	resp.Body.Item = h.qrCodeBody(qr)

	return resp, nil
}

func (h *QRCodeHandler) Update(ctx context.Context, req *UpdateQRCodeRequest) (*UpdateQRCodeResponse, error) {
	ownerID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	changes := qrcode.Changes{
		Title:         req.Body.Title,
		Image:         req.Body.Image,
		Customization: req.Body.Customization,
	}

	qr, err := h.qrcodes.Update(ctx, req.ID, changes, ownerID)
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	resp := &UpdateQRCodeResponse{}
	resp.Body.UpdatedItem = h.qrCodeBody(qr)

	return resp, nil
}

func (h *QRCodeHandler) Delete(ctx context.Context, req *QRCodeIDRequest) (*NoContentResponse, error) {
	ownerID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.qrcodes.Delete(ctx, req.ID, ownerID); err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	return &NoContentResponse{}, nil
}

func (h *QRCodeHandler) qrCodeBody(qr *qrcode.QRCode) QRCodeBody {
	custom := qr.Customization
	if custom == nil {
		custom = map[string]any{}
	}

	return QRCodeBody{
		ID:            qr.ID,
		Title:         qr.Title,
		Image:         qr.Image,
		Customization: custom,
		UserID:        qr.OwnerID,
		LinkID:        qr.LinkID,
		Link: QRCodeLink{
			ShortCode: string(qr.LinkCode),
			ShortURL:  shortURL(h.baseURL, qr.LinkCode),
		},
		CreatedAt: qr.CreatedAt,
		UpdatedAt: qr.UpdatedAt,
	}
}
