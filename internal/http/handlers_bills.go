package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"

	"bills/internal/core"
)

// groupView is one page of a bill type group.
type groupView struct {
	Type   core.BillType `json:"type"`
	Bills  []core.Bill   `json:"bills"`
	Total  int           `json:"total"`
	Hidden int           `json:"hidden"`
}

type billListResponse struct {
	Groups  []groupView `json:"groups"`
	Matched int         `json:"matched"`
	Total   int         `json:"total"`
	PastDue []string    `json:"pastDue"`
}

// handleListBills filters, groups and pages the bill list.
func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	pager, err := ParsePager(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}

	bills, err := s.bills.Bills(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	types, err := s.bills.BillTypes(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}

	matched := filter.Apply(bills)
	resp := billListResponse{
		Groups:  []groupView{},
		Matched: len(matched),
		Total:   len(bills),
		PastDue: []string{},
	}
	for _, g := range s.grouper.Group(matched, types) {
		page, hidden := pager.Visible(g)
		resp.Groups = append(resp.Groups, groupView{
			Type:   page.Type,
			Bills:  page.Bills,
			Total:  len(g.Bills),
			Hidden: hidden,
		})
	}

	t := s.now()
	today := core.NewDate(t.Year(), int(t.Month()), t.Day())
	for _, b := range matched {
		if b.IsPastDue(today) {
			resp.PastDue = append(resp.PastDue, b.ID)
		}
	}

	NewJSONResponse().Body(resp).Write(w)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		WriteError(w, r, err)
		return
	}
	bill, err := s.bills.CreateBill(r.Context(), in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Created(bill).Header("Location", "/api/bills/"+bill.ID).Write(w)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := s.bills.Bill(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Body(bill).Write(w)
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		WriteError(w, r, err)
		return
	}
	bill, err := s.bills.UpdateBill(r.Context(), r.PathValue("id"), in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Body(bill).Write(w)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	status, err := core.ParseStatus(req.Status)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	bill, err := s.bills.SetStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewJSONResponse().Body(bill).Write(w)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	if err := s.bills.DeleteBill(r.Context(), r.PathValue("id")); err != nil {
		WriteError(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleDuplicateBill(w http.ResponseWriter, r *http.Request) {
	bill, err := s.bills.DuplicateBill(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Created(bill).Header("Location", "/api/bills/"+bill.ID).Write(w)
}

// handleAttachFiles stores every part named "files" (or "file") as an
// attachment. The optional "role" field is bill or receipt.
func (s *Server) handleAttachFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			ErrorResponse(http.StatusRequestEntityTooLarge, fmt.Sprintf("upload larger than %d bytes", maxBytes.Limit)).Write(w)
			return
		}
		WriteError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	var role core.FileRole
	if v := r.FormValue("role"); v != "" {
		parsed, err := core.ParseFileRole(v)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		role = parsed
	}

	headers := slices.Concat(r.MultipartForm.File["files"], r.MultipartForm.File["file"])
	if len(headers) == 0 {
		BadRequestError("no file parts in upload").Write(w)
		return
	}

	attached := make([]core.BillFile, 0, len(headers))
	for i, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			WriteError(w, r, fmt.Errorf("%w: open part %d: %v", errBadRequest, i, err))
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			WriteError(w, r, fmt.Errorf("%w: read part %d: %v", errBadRequest, i, err))
			return
		}

		file, err := s.bills.AttachFile(r.Context(), r.PathValue("id"), role, fh.Filename, content, i)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		attached = append(attached, file)
	}

	Created(map[string]any{"files": attached}).Write(w)
}

func (s *Server) handleDetachFile(w http.ResponseWriter, r *http.Request) {
	if err := s.bills.DetachFile(r.Context(), r.PathValue("id"), r.PathValue("fileId")); err != nil {
		WriteError(w, r, err)
		return
	}
	NoContent().Write(w)
}

// handleGetFile streams attachment bytes. Reads go through the blob cache.
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	obj, err := s.bills.File(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size(), 10))
	w.Header().Set("Content-Disposition", "inline")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(obj.Data)
	}
}

// handleUploadReceipt copies one attachment to the Drive receipts folder.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	if s.drive == nil {
		WriteError(w, r, errDriveDisabled)
		return
	}
	file, err := s.drive.UploadReceipt(r.Context(), r.PathValue("id"), r.PathValue("fileId"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Created(file).Write(w)
}
