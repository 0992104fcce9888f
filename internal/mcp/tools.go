package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/hourbank/internal/domain/ledger"
)

func registerTools(server *sdkmcp.Server, svc LedgerService) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_state",
		Description: "Get the parameters, ratio and every member's grams and value",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyParams) (*sdkmcp.CallToolResult, ledger.Response, error) {
		return respond(svc.State(ctx))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_parameters",
		Description: "Change any of S, p, c and H; omitted parameters keep their value",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in UpdateParametersParams) (*sdkmcp.CallToolResult, ledger.Response, error) {
		return respond(svc.UpdateParameters(ctx, ledger.ParametersPatch{
			S: quantity(in.S),
			P: quantity(in.P),
			C: quantity(in.C),
			H: quantity(in.H),
		}))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_member",
		Description: "Add a member with a new id",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in MemberParams) (*sdkmcp.CallToolResult, ledger.Response, error) {
		return respond(svc.Add(ctx, memberInput(in)))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "submit_hours",
		Description: "Set hours for the member with this name, adding the member if needed, and mirror the entry",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in MemberParams) (*sdkmcp.CallToolResult, ledger.SubmitResult, error) {
		result, err := svc.Submit(ctx, memberInput(in))
		if err != nil {
			return nil, ledger.SubmitResult{}, toolError(err)
		}
		return nil, *result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_member",
		Description: "Rename a member or replace their hours",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in UpdateMemberParams) (*sdkmcp.CallToolResult, ledger.Response, error) {
		patch := ledger.MemberPatch{Hours: quantity(in.Hours)}
		if in.Name != nil {
			patch.Name = ledger.TextOf(*in.Name)
		}
		return respond(svc.Update(ctx, in.ID, patch))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_member",
		Description: "Remove a member by id",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in DeleteMemberParams) (*sdkmcp.CallToolResult, ledger.Response, error) {
		return respond(svc.Delete(ctx, in.ID))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "clear_members",
		Description: "Remove every member; parameters and the id counter are kept",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyParams) (*sdkmcp.CallToolResult, ledger.Response, error) {
		return respond(svc.Clear(ctx))
	})
}

func respond(resp *ledger.Response, err error) (*sdkmcp.CallToolResult, ledger.Response, error) {
	if err != nil {
		return nil, ledger.Response{}, toolError(err)
	}
	return nil, *resp, nil
}

func memberInput(in MemberParams) ledger.MemberInput {
	return ledger.MemberInput{
		Name:  ledger.TextOf(in.Name),
		Hours: quantity(in.Hours),
	}
}

func quantity(v *float64) *ledger.Quantity {
	if v == nil {
		return nil
	}
	return ledger.QuantityOf(*v)
}
