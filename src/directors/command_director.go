package directors

import (
	"errors"
	"fmt"
	"strings"

	"tabledb/src/auth"
	"tabledb/src/engine"
	"tabledb/src/helpers"
	"tabledb/src/models"

	"go.uber.org/zap"
)

// ErrBadRequest marks requests missing a required parameter.
var ErrBadRequest = errors.New("bad request")

// ErrorKind maps any error produced while handling a request to its kind.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoDatabase):
		return "NoDatabase"
	case errors.Is(err, ErrBadRequest):
		return "BadRequest"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Unauthorized"
	}
	return engine.ErrorKind(err)
}

// ErrorResponse converts a failure into a response for the client.
func ErrorResponse(requestID string, err error) *models.Response {
	return &models.Response{
		RequestID: requestID,
		Status:    models.StatusError,
		Kind:      ErrorKind(err),
		Message:   err.Error(),
	}
}

func requireParam(value, what string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrBadRequest, what)
	}
	return nil
}

func success(message string, result interface{}, count int) *models.Response {
	return &models.Response{
		Status:      models.StatusSuccess,
		Message:     message,
		Result:      result,
		ResultCount: count,
	}
}

// CommandDirector executes one request against the service. Every failure is
// returned as an error; the caller turns it into an error response.
func CommandDirector(service *DatabaseService, request models.Request, logger *zap.SugaredLogger) (*models.Response, error) {
	response, err := direct(service, request)
	if err != nil {
		logger.Debugw("Command failed", "command", request.Command, "kind", ErrorKind(err), "error", err)
		return nil, err
	}
	response.RequestID = helpers.GenerateUUID()
	return response, nil
}

func direct(service *DatabaseService, request models.Request) (*models.Response, error) {
	switch strings.ToLower(strings.TrimSpace(request.Command)) {
	case models.CmdCreateDatabase:
		if err := requireParam(request.Database, "database name"); err != nil {
			return nil, err
		}
		if err := service.CreateDatabase(request.Database); err != nil {
			return nil, err
		}
		return success(fmt.Sprintf("Database '%s' created.", request.Database), nil, 0), nil

	case models.CmdOpenDatabase:
		if err := requireParam(request.Database, "database name"); err != nil {
			return nil, err
		}
		if err := service.OpenDatabase(request.Database); err != nil {
			return nil, err
		}
		return success(fmt.Sprintf("Database '%s' opened.", request.Database), nil, 0), nil

	case models.CmdCreateTable:
		if err := requireParam(request.Table, "table name"); err != nil {
			return nil, err
		}
		if err := service.CreateTable(request.Table); err != nil {
			return nil, err
		}
		return success(fmt.Sprintf("Table '%s' created.", request.Table), nil, 0), nil

	case models.CmdRemoveTable:
		if err := service.RemoveTable(request.Table); err != nil {
			return nil, err
		}
		return success(fmt.Sprintf("Table '%s' removed.", request.Table), nil, 0), nil

	case models.CmdListTables:
		names, err := service.ListTables()
		if err != nil {
			return nil, err
		}
		return success("", names, len(names)), nil

	case models.CmdAddField:
		field, err := buildField(request.Field, request.FieldType)
		if err != nil {
			return nil, err
		}
		if err := service.AddField(request.Table, field); err != nil {
			return nil, err
		}
		return success(fmt.Sprintf("Field '%s' added to table '%s'.", field.Name, request.Table), nil, 0), nil

	case models.CmdEditField:
		if err := requireParam(request.OldField, "old field name"); err != nil {
			return nil, err
		}
		field, err := buildField(request.Field, request.FieldType)
		if err != nil {
			return nil, err
		}
		if err := service.EditField(request.Table, request.OldField, field); err != nil {
			return nil, err
		}
		return success(fmt.Sprintf("Field '%s' changed to '%s'.", request.OldField, field.Name), nil, 0), nil

	case models.CmdRemoveField:
		if err := service.RemoveField(request.Table, request.Field); err != nil {
			return nil, err
		}
		return success(fmt.Sprintf("Field '%s' removed from table '%s'.", request.Field, request.Table), nil, 0), nil

	case models.CmdAddRecord:
		if err := service.AddRecord(request.Table, request.Record); err != nil {
			return nil, err
		}
		return success(fmt.Sprintf("Record added to table '%s'.", request.Table), nil, 1), nil

	case models.CmdViewTable:
		view, err := service.ViewTable(request.Table)
		if err != nil {
			return nil, err
		}
		return success("", view, len(view.Records)), nil

	case models.CmdViewAllTables:
		views, err := service.ViewAllTables()
		if err != nil {
			return nil, err
		}
		return success("", views, len(views)), nil

	case models.CmdSave:
		if err := service.Save(); err != nil {
			return nil, err
		}
		return success("Database saved.", nil, 0), nil

	case models.CmdLoad:
		if err := service.Load(); err != nil {
			return nil, err
		}
		return success("Database loaded.", nil, 0), nil

	case models.CmdJoin:
		if err := requireParam(request.Field, "common field name"); err != nil {
			return nil, err
		}
		joined, err := service.Join(request.Table, request.Table2, request.Field)
		if err != nil {
			return nil, err
		}
		return success("", joined, len(joined)), nil
	}

	return nil, fmt.Errorf("%w: unknown command '%s'", ErrBadRequest, request.Command)
}

// buildField validates the name and type tag of a field definition.
func buildField(name, fieldType string) (engine.Field, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(fieldType) == "" {
		return engine.Field{}, fmt.Errorf("%w: field name and type are required", ErrBadRequest)
	}
	t, err := engine.ParseFieldType(fieldType)
	if err != nil {
		return engine.Field{}, err
	}
	return engine.NewField(name, t)
}
