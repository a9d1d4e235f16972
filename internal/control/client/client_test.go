package client

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"

	"github.com/scratchd/scratchd/internal/control"
)

func startTestServer(t *testing.T, handler func(net.Conn)) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "socket")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen on unix socket: %v", err)
	}
	go func() {
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		handler(conn)
	}()
	return path
}

func respondWith(t *testing.T, wantAction string, check func(control.Request), resp control.Response) func(net.Conn) {
	return func(conn net.Conn) {
		defer conn.Close()
		var req control.Request
		if err := json.NewDecoder(conn).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.Action != wantAction {
			t.Errorf("unexpected action %q", req.Action)
			return
		}
		if check != nil {
			check(req)
		}
		if err := json.NewEncoder(conn).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func TestProjectSuccess(t *testing.T) {
	path := startTestServer(t, respondWith(t, control.ActionProjectGet, nil, control.Response{
		Status: control.StatusOK,
		Data:   control.ProjectStatus{Active: "dev", Projects: []string{"dev", "web"}},
	}))
	cli, err := New(path)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	status, err := cli.Project(context.Background())
	if err != nil {
		t.Fatalf("Project returned error: %v", err)
	}
	if status.Active != "dev" || len(status.Projects) != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestSetProjectSendsName(t *testing.T) {
	path := startTestServer(t, respondWith(t, control.ActionProjectSet, func(req control.Request) {
		if req.Params["name"] != "web" {
			t.Errorf("unexpected params: %#v", req.Params)
		}
	}, control.Response{
		Status: control.StatusOK,
		Data:   ReconcileResult{Project: "web", Hidden: 1, Shown: 2},
	}))
	cli, err := New(path)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if _, err := cli.SetProject(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty project name")
	}
	result, err := cli.SetProject(context.Background(), "web")
	if err != nil {
		t.Fatalf("SetProject returned error: %v", err)
	}
	if result.Project != "web" || result.Hidden != 1 || result.Shown != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestPreviewReconcileSendsFlag(t *testing.T) {
	path := startTestServer(t, respondWith(t, control.ActionReconcile, func(req control.Request) {
		if req.Params["preview"] != true {
			t.Errorf("unexpected params: %#v", req.Params)
		}
	}, control.Response{
		Status: control.StatusOK,
		Data: []PlannedCommand{
			{ConID: 7, Action: "hide", Command: "[con_id=7] move scratchpad"},
		},
	}))
	cli, err := New(path)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	plan, err := cli.PreviewReconcile(context.Background())
	if err != nil {
		t.Fatalf("PreviewReconcile returned error: %v", err)
	}
	if len(plan) != 1 || plan[0].ConID != 7 || plan[0].Action != "hide" {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestSummonRoundTrip(t *testing.T) {
	path := startTestServer(t, respondWith(t, control.ActionSummon, func(req control.Request) {
		if req.Params["criteria"] != "kitty" {
			t.Errorf("unexpected params: %#v", req.Params)
		}
	}, control.Response{
		Status: control.StatusOK,
		Data:   SummonResult{ConID: 42, Project: "dev", WasHidden: true, X: 1110, Y: 470},
	}))
	cli, err := New(path)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if _, err := cli.Summon(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty criteria")
	}
	result, err := cli.Summon(context.Background(), "kitty")
	if err != nil {
		t.Fatalf("Summon returned error: %v", err)
	}
	if result.ConID != 42 || !result.WasHidden || result.X != 1110 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSaveStateSendsConID(t *testing.T) {
	path := startTestServer(t, respondWith(t, control.ActionStateSave, func(req control.Request) {
		// JSON numbers arrive as float64.
		if req.Params["con_id"] != float64(42) {
			t.Errorf("unexpected params: %#v", req.Params)
		}
	}, control.Response{
		Status: control.StatusOK,
		Data:   control.SavedMark{ConID: 42, Mark: "scratch:dev|floating:true,x:1,y:2,w:3,h:4,ts:5,ws:6,mon:DP-1"},
	}))
	cli, err := New(path)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	saved, err := cli.SaveState(context.Background(), 42)
	if err != nil {
		t.Fatalf("SaveState returned error: %v", err)
	}
	if saved.ConID != 42 || saved.Mark == "" {
		t.Fatalf("unexpected payload: %+v", saved)
	}
}

func TestServerErrorPropagates(t *testing.T) {
	path := startTestServer(t, func(conn net.Conn) {
		defer conn.Close()
		var req control.Request
		if err := json.NewDecoder(conn).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		_ = json.NewEncoder(conn).Encode(control.Response{Status: control.StatusError, Error: "snapshot: boom"})
	})
	cli, err := New(path)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	_, err = cli.Status(context.Background())
	if err == nil || err.Error() != "snapshot: boom" {
		t.Fatalf("expected server error to propagate, got %v", err)
	}
}

func TestDialFailure(t *testing.T) {
	cli, err := New(filepath.Join(t.TempDir(), "absent.sock"))
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if err := cli.Recover(context.Background()); err == nil {
		t.Fatal("expected dial error for missing socket")
	}
}
