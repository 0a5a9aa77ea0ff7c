package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/logger"
	"circulation-backend/internal/platform/page"
)

type Handler struct{ svc *Service }

// RegisterRoutes: 閲覧（ログイン済みなら誰でも）
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/books", h.ListBooks)
	r.GET("/books/:book_id", h.GetBook)
}

// RegisterAdminRoutes: 登録・蔵書数変更
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/books", h.CreateBook)
	r.PATCH("/books/:book_id/copies", h.AdjustCopies)
	r.GET("/books/labels.csv", h.Labels)
}

// ListBooks godoc
// @Summary  蔵書一覧
// @Tags     books
// @Produce  json
// @Param    q              query string false "title/author/isbn"
// @Param    category       query string false "category"
// @Param    available_only query bool   false "only titles with copies on shelf"
// @Success  200 {object} ListBooksResponse
// @Router   /books [get]
func (h *Handler) ListBooks(c *gin.Context) {
	f := Filter{}
	if v := c.Query("q"); v != "" {
		f.Query = &v
	}
	if v := c.Query("category"); v != "" {
		f.Category = &v
	}
	if v := c.Query("available_only"); v == "true" || v == "1" {
		f.AvailableOnly = true
	}
	res, err := h.svc.ListBooks(c.Request.Context(), f, page.FromQuery(c))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetBook(c *gin.Context) {
	res, err := h.svc.GetBook(c.Request.Context(), c.Param("book_id"))
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "invalid json")
		return
	}
	res, err := h.svc.CreateBook(c.Request.Context(), req)
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.Header("Location", "/books/"+res.BookID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) AdjustCopies(c *gin.Context) {
	var req AdjustCopiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "invalid json")
		return
	}
	res, err := h.svc.AdjustCopies(c.Request.Context(), c.Param("book_id"), req.TotalCopies)
	if err != nil {
		apierr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Labels godoc
// @Summary  背ラベル用 CSV（所蔵1冊につき1行）
// @Tags     books
// @Produce  text/csv
// @Param    category query string false "category"
// @Param    encoding query string false "utf8|sjis（既定 utf8）"
// @Router   /admin/books/labels.csv [get]
func (h *Handler) Labels(c *gin.Context) {
	enc := c.DefaultQuery("encoding", LabelEncodingUTF8)
	if enc != LabelEncodingUTF8 && enc != LabelEncodingSJIS {
		apierr.BadRequest(c, "encoding must be utf8 or sjis")
		return
	}
	f := Filter{}
	if v := c.Query("category"); v != "" {
		f.Category = &v
	}
	rows, err := h.svc.Labels(c.Request.Context(), f)
	if err != nil {
		apierr.Abort(c, err)
		return
	}

	charset := "utf-8"
	if enc == LabelEncodingSJIS {
		charset = "shift_jis"
	}
	c.Header("Content-Type", "text/csv; charset="+charset)
	c.Header("Content-Disposition", `attachment; filename="labels.csv"`)
	c.Status(http.StatusOK)
	if err := WriteLabelsCSV(c.Writer, rows, enc); err != nil {
		logger.Log.WithError(err).Error("write labels csv failed")
	}
}
