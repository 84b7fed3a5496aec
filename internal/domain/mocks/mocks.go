// Package mocks holds hand-maintained gomock doubles for the internal/domain
// interfaces, in the shape mockgen would generate (see the //go:generate
// directive in internal/domain/interfaces.go).
package mocks

import (
	"context"
	"reflect"

	"github.com/email4-dev/mailer/internal/domain"
	"github.com/golang/mock/gomock"
)

// MockRenderer is a mock of the Renderer interface.
type MockRenderer struct {
	ctrl     *gomock.Controller
	recorder *MockRendererMockRecorder
}

type MockRendererMockRecorder struct {
	mock *MockRenderer
}

func NewMockRenderer(ctrl *gomock.Controller) *MockRenderer {
	mock := &MockRenderer{ctrl: ctrl}
	mock.recorder = &MockRendererMockRecorder{mock}
	return mock
}

func (m *MockRenderer) EXPECT() *MockRendererMockRecorder {
	return m.recorder
}

func (m *MockRenderer) Render(ctx context.Context, form *domain.FormRecord, fields []domain.Field, origin string, attachmentURL string) (*domain.RenderedMail, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Render", ctx, form, fields, origin, attachmentURL)
	ret0, _ := ret[0].(*domain.RenderedMail)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockRendererMockRecorder) Render(ctx, form, fields, origin, attachmentURL interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Render", reflect.TypeOf((*MockRenderer)(nil).Render), ctx, form, fields, origin, attachmentURL)
}

// MockSender is a mock of the Sender interface.
type MockSender struct {
	ctrl     *gomock.Controller
	recorder *MockSenderMockRecorder
}

type MockSenderMockRecorder struct {
	mock *MockSender
}

func NewMockSender(ctrl *gomock.Controller) *MockSender {
	mock := &MockSender{ctrl: ctrl}
	mock.recorder = &MockSenderMockRecorder{mock}
	return mock
}

func (m *MockSender) EXPECT() *MockSenderMockRecorder {
	return m.recorder
}

func (m *MockSender) Send(ctx context.Context, mail *domain.RenderedMail, clientMessageID string) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Send", ctx, mail, clientMessageID)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockSenderMockRecorder) Send(ctx, mail, clientMessageID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Send", reflect.TypeOf((*MockSender)(nil).Send), ctx, mail, clientMessageID)
}

// MockFormStore is a mock of the FormStore interface.
type MockFormStore struct {
	ctrl     *gomock.Controller
	recorder *MockFormStoreMockRecorder
}

type MockFormStoreMockRecorder struct {
	mock *MockFormStore
}

func NewMockFormStore(ctrl *gomock.Controller) *MockFormStore {
	mock := &MockFormStore{ctrl: ctrl}
	mock.recorder = &MockFormStoreMockRecorder{mock}
	return mock
}

func (m *MockFormStore) EXPECT() *MockFormStoreMockRecorder {
	return m.recorder
}

func (m *MockFormStore) GetForm(ctx context.Context, formID string) (*domain.FormRecord, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetForm", ctx, formID)
	ret0, _ := ret[0].(*domain.FormRecord)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockFormStoreMockRecorder) GetForm(ctx, formID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetForm", reflect.TypeOf((*MockFormStore)(nil).GetForm), ctx, formID)
}

// MockAttachmentStore is a mock of the AttachmentStore interface.
type MockAttachmentStore struct {
	ctrl     *gomock.Controller
	recorder *MockAttachmentStoreMockRecorder
}

type MockAttachmentStoreMockRecorder struct {
	mock *MockAttachmentStore
}

func NewMockAttachmentStore(ctrl *gomock.Controller) *MockAttachmentStore {
	mock := &MockAttachmentStore{ctrl: ctrl}
	mock.recorder = &MockAttachmentStoreMockRecorder{mock}
	return mock
}

func (m *MockAttachmentStore) EXPECT() *MockAttachmentStoreMockRecorder {
	return m.recorder
}

func (m *MockAttachmentStore) DeleteObjects(ctx context.Context, keys []string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteObjects", ctx, keys)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockAttachmentStoreMockRecorder) DeleteObjects(ctx, keys interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteObjects", reflect.TypeOf((*MockAttachmentStore)(nil).DeleteObjects), ctx, keys)
}

// MockSideStateStore is a mock of the SideStateStore interface.
type MockSideStateStore struct {
	ctrl     *gomock.Controller
	recorder *MockSideStateStoreMockRecorder
}

type MockSideStateStoreMockRecorder struct {
	mock *MockSideStateStore
}

func NewMockSideStateStore(ctrl *gomock.Controller) *MockSideStateStore {
	mock := &MockSideStateStore{ctrl: ctrl}
	mock.recorder = &MockSideStateStoreMockRecorder{mock}
	return mock
}

func (m *MockSideStateStore) EXPECT() *MockSideStateStoreMockRecorder {
	return m.recorder
}

func (m *MockSideStateStore) DeleteDedup(ctx context.Context, hex string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteDedup", ctx, hex)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockSideStateStoreMockRecorder) DeleteDedup(ctx, hex interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteDedup", reflect.TypeOf((*MockSideStateStore)(nil).DeleteDedup), ctx, hex)
}

func (m *MockSideStateStore) LoadAttachments(ctx context.Context, hex string) (*domain.AttachmentManifest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LoadAttachments", ctx, hex)
	ret0, _ := ret[0].(*domain.AttachmentManifest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockSideStateStoreMockRecorder) LoadAttachments(ctx, hex interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LoadAttachments", reflect.TypeOf((*MockSideStateStore)(nil).LoadAttachments), ctx, hex)
}

func (m *MockSideStateStore) DeleteAttachmentsEntry(ctx context.Context, hex string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteAttachmentsEntry", ctx, hex)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockSideStateStoreMockRecorder) DeleteAttachmentsEntry(ctx, hex interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteAttachmentsEntry", reflect.TypeOf((*MockSideStateStore)(nil).DeleteAttachmentsEntry), ctx, hex)
}

func (m *MockSideStateStore) AppendFailed(ctx context.Context, rec domain.FailedEntryRecord) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AppendFailed", ctx, rec)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockSideStateStoreMockRecorder) AppendFailed(ctx, rec interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AppendFailed", reflect.TypeOf((*MockSideStateStore)(nil).AppendFailed), ctx, rec)
}

func (m *MockSideStateStore) AckAndRemove(ctx context.Context, stream string, entryID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AckAndRemove", ctx, stream, entryID)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockSideStateStoreMockRecorder) AckAndRemove(ctx, stream, entryID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AckAndRemove", reflect.TypeOf((*MockSideStateStore)(nil).AckAndRemove), ctx, stream, entryID)
}

func (m *MockSideStateStore) EnqueueRetry(ctx context.Context, stream string, originalID string, payload map[string]string) (string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "EnqueueRetry", ctx, stream, originalID, payload)
	ret0, _ := ret[0].(string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockSideStateStoreMockRecorder) EnqueueRetry(ctx, stream, originalID, payload interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EnqueueRetry", reflect.TypeOf((*MockSideStateStore)(nil).EnqueueRetry), ctx, stream, originalID, payload)
}
