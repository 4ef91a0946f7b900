package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quantract/certledger/internal/document"
	"github.com/quantract/certledger/internal/ledger"
	"github.com/quantract/certledger/internal/model"
	"github.com/quantract/certledger/internal/util"
)

type CertificateController struct {
	*baseController
}

const (
	ErrCertificateIdRequired = "certificate id is required"
	ErrInvalidRevision       = "revision must be a positive integer"
)

type draftFields struct {
	InspectorName         string                `json:"inspectorName" binding:"max=200"`
	InspectorRegistration string                `json:"inspectorRegistration" binding:"max=100"`
	ClientName            string                `json:"clientName" binding:"max=200"`
	SiteAddress           string                `json:"siteAddress" binding:"max=500"`
	Content               json.RawMessage       `json:"content"`
	Attachments           []document.Attachment `json:"attachments" binding:"max=50"`
}

func (f draftFields) input(t string) ledger.DraftInput {
	return ledger.DraftInput{
		Type: document.Type(t),
		Header: document.Header{
			InspectorName:         f.InspectorName,
			InspectorRegistration: f.InspectorRegistration,
			ClientName:            f.ClientName,
			SiteAddress:           f.SiteAddress,
		},
		Content:     f.Content,
		Attachments: f.Attachments,
	}
}

// certificateId reads the path id, answering 400 itself when it is empty.
func (cc CertificateController) certificateId(ctx *gin.Context) (string, bool) {
	id := ctx.Params.ByName("certificateId")
	if id == "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Certificate id is required", util.GenerateErrorMessages(errors.New(ErrCertificateIdRequired), "certificateId"), nil)
		return "", false
	}
	return id, true
}

// actor reads the caller, answering 401 itself when it is missing.
func (cc CertificateController) actor(ctx *gin.Context) (ledger.Actor, bool) {
	actor, err := cc.getActor(ctx)
	if err != nil {
		cc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return ledger.Actor{}, false
	}
	return actor, true
}

func (cc CertificateController) CreateCertificate(ctx *gin.Context) {
	type Request struct {
		Type string `json:"type" binding:"required,oneof=EICR EIC MWC"`
		draftFields
	}
	var body Request

	actor, ok := cc.actor(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	cert, err := cc.app.Ledger.CreateDraft(ctx.Request.Context(), actor, body.input(body.Type))
	if err != nil {
		cc.responseLedgerError(ctx, "Failed to create certificate", err)
		return
	}

	util.ResponseCreated(ctx, gin.H{"certificate": cert})
}

func (cc CertificateController) UpdateCertificate(ctx *gin.Context) {
	type Request struct {
		Type string `json:"type" binding:"omitempty,oneof=EICR EIC MWC"`
		draftFields
	}
	var body Request

	actor, ok := cc.actor(ctx)
	if !ok {
		return
	}
	id, ok := cc.certificateId(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	cert, err := cc.app.Ledger.UpdateDraft(ctx.Request.Context(), id, actor, body.input(body.Type))
	if err != nil {
		cc.responseLedgerError(ctx, "Failed to update certificate", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"certificate": cert})
}

func (cc CertificateController) GetCertificate(ctx *gin.Context) {
	actor, ok := cc.actor(ctx)
	if !ok {
		return
	}
	id, ok := cc.certificateId(ctx)
	if !ok {
		return
	}

	cert, err := cc.app.Ledger.Get(ctx.Request.Context(), id, actor)
	if err != nil {
		cc.responseLedgerError(ctx, "Failed to get certificate", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"certificate": cert})
}

func (cc CertificateController) GetReadiness(ctx *gin.Context) {
	actor, ok := cc.actor(ctx)
	if !ok {
		return
	}
	id, ok := cc.certificateId(ctx)
	if !ok {
		return
	}

	readiness, err := cc.app.Ledger.Readiness(ctx.Request.Context(), id, actor)
	if err != nil {
		cc.responseLedgerError(ctx, "Failed to check readiness", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"readiness": readiness})
}

type certificateAction func(ctx *gin.Context, id string, actor ledger.Actor) (*model.Certificate, error)

// transition runs a status change that answers with the changed certificate.
func (cc CertificateController) transition(ctx *gin.Context, message string, action certificateAction) {
	actor, ok := cc.actor(ctx)
	if !ok {
		return
	}
	id, ok := cc.certificateId(ctx)
	if !ok {
		return
	}

	cert, err := action(ctx, id, actor)
	if err != nil {
		cc.responseLedgerError(ctx, message, err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"certificate": cert})
}

func (cc CertificateController) CompleteCertificate(ctx *gin.Context) {
	cc.transition(ctx, "Failed to complete certificate", func(ctx *gin.Context, id string, actor ledger.Actor) (*model.Certificate, error) {
		return cc.app.Ledger.Complete(ctx.Request.Context(), id, actor)
	})
}

func (cc CertificateController) ReopenCertificate(ctx *gin.Context) {
	cc.transition(ctx, "Failed to reopen certificate", func(ctx *gin.Context, id string, actor ledger.Actor) (*model.Certificate, error) {
		return cc.app.Ledger.Reopen(ctx.Request.Context(), id, actor)
	})
}

func (cc CertificateController) VoidCertificate(ctx *gin.Context) {
	cc.transition(ctx, "Failed to void certificate", func(ctx *gin.Context, id string, actor ledger.Actor) (*model.Certificate, error) {
		return cc.app.Ledger.Void(ctx.Request.Context(), id, actor)
	})
}

func (cc CertificateController) RestoreVerification(ctx *gin.Context) {
	cc.transition(ctx, "Failed to restore verification", func(ctx *gin.Context, id string, actor ledger.Actor) (*model.Certificate, error) {
		return cc.app.Gate.Restore(ctx.Request.Context(), id, actor)
	})
}

func (cc CertificateController) RevokeVerification(ctx *gin.Context) {
	type Request struct {
		Reason string `json:"reason" binding:"required,strNotEmpty"`
	}
	var body Request

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	cc.transition(ctx, "Failed to revoke verification", func(ctx *gin.Context, id string, actor ledger.Actor) (*model.Certificate, error) {
		return cc.app.Gate.Revoke(ctx.Request.Context(), id, body.Reason, actor)
	})
}

func (cc CertificateController) IssueCertificate(ctx *gin.Context) {
	actor, ok := cc.actor(ctx)
	if !ok {
		return
	}
	id, ok := cc.certificateId(ctx)
	if !ok {
		return
	}

	rev, err := cc.app.Ledger.Issue(ctx.Request.Context(), id, actor)
	if err != nil {
		cc.responseLedgerError(ctx, "Failed to issue certificate", err)
		return
	}

	cert, err := cc.app.Ledger.Get(ctx.Request.Context(), id, actor)
	if err != nil {
		cc.responseLedgerError(ctx, "Failed to get issued certificate", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"certificate":     cert,
		"revision":        rev,
		"verificationUrl": ledger.VerificationURL(cc.app.Config.PublicBaseURL, *cert.VerificationToken),
	})
}

// ReissueCertificate answers with the new draft successor.
func (cc CertificateController) ReissueCertificate(ctx *gin.Context) {
	actor, ok := cc.actor(ctx)
	if !ok {
		return
	}
	id, ok := cc.certificateId(ctx)
	if !ok {
		return
	}

	successor, err := cc.app.Ledger.Reissue(ctx.Request.Context(), id, actor)
	if err != nil {
		cc.responseLedgerError(ctx, "Failed to reissue certificate", err)
		return
	}

	util.ResponseCreated(ctx, gin.H{"certificate": successor})
}

func (cc CertificateController) GetRevisions(ctx *gin.Context) {
	actor, ok := cc.actor(ctx)
	if !ok {
		return
	}
	id, ok := cc.certificateId(ctx)
	if !ok {
		return
	}

	revisions, err := cc.app.Ledger.History(ctx.Request.Context(), id, actor)
	if err != nil {
		cc.responseLedgerError(ctx, "Failed to get revisions", err)
		return
	}
	if revisions == nil {
		revisions = []model.CertificateRevision{}
	}

	util.ResponseSuccess(ctx, gin.H{"revisions": revisions})
}

func (cc CertificateController) GetRevision(ctx *gin.Context) {
	actor, ok := cc.actor(ctx)
	if !ok {
		return
	}
	id, ok := cc.certificateId(ctx)
	if !ok {
		return
	}

	n, err := strconv.Atoi(ctx.Params.ByName("revision"))
	if err != nil || n <= 0 {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid revision", util.GenerateErrorMessages(errors.New(ErrInvalidRevision), "revision"), nil)
		return
	}

	rev, err := cc.app.Ledger.Revision(ctx.Request.Context(), id, n, actor)
	if err != nil {
		cc.responseLedgerError(ctx, "Failed to get revision", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{"revision": rev})
}

func (cc CertificateController) GetAuditLogs(ctx *gin.Context) {
	actor, ok := cc.actor(ctx)
	if !ok {
		return
	}
	id, ok := cc.certificateId(ctx)
	if !ok {
		return
	}

	// Ownership check; audit rows are filtered by company as well.
	if _, err := cc.app.Ledger.Get(ctx.Request.Context(), id, actor); err != nil {
		cc.responseLedgerError(ctx, "Failed to get audit logs", err)
		return
	}

	logs, err := cc.app.Repository.AuditLog.GetByCertificateId(ctx.Request.Context(), nil, actor.CompanyID, id)
	if err != nil {
		cc.responseLedgerError(ctx, "Failed to get audit logs", err)
		return
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}

	util.ResponseSuccess(ctx, gin.H{"logs": logs})
}
