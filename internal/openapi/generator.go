package openapi

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// column describes one JSON field of an API resource by the SQL type of the
// column that backs it.
type column struct {
	Name     string
	Type     string
	Nullable bool
	ReadOnly bool
	Required bool // on create/update requests
}

// resource is a CRUD-able content type exposed under /api/<Path>.
type resource struct {
	Name     string // component schema name
	Path     string
	Tag      string
	Columns  []column
	Listing  string // JSON key of the list response
	Single   string // JSON key of the single-item response
	IDKey    string // JSON key of the id in create responses
	Paged    bool   // list endpoint accepts page/limit
	Writable bool   // POST/PUT/DELETE with JSON bodies
}

var resources = []resource{
	{
		Name: "News", Path: "news", Tag: "news", Listing: "news", Single: "news", IDKey: "newsId",
		Paged: true, Writable: true,
		Columns: []column{
			{Name: "id", Type: "bigint", ReadOnly: true},
			{Name: "title", Type: "varchar(255)", Required: true},
			{Name: "content", Type: "text"},
			{Name: "image_url", Type: "varchar(255)"},
			{Name: "created_at", Type: "datetime", ReadOnly: true},
			{Name: "updated_at", Type: "datetime", ReadOnly: true},
		},
	},
	{
		Name: "Slide", Path: "slides", Tag: "slides", Listing: "slides", Single: "slide", IDKey: "slideId",
		Writable: true,
		Columns: []column{
			{Name: "id", Type: "bigint", ReadOnly: true},
			{Name: "title", Type: "varchar(255)"},
			{Name: "image_url", Type: "varchar(255)", Required: true},
			{Name: "link", Type: "varchar(255)"},
			{Name: "order_num", Type: "integer"},
			{Name: "created_at", Type: "datetime", ReadOnly: true},
			{Name: "updated_at", Type: "datetime", ReadOnly: true},
		},
	},
	{
		Name: "Teacher", Path: "teachers", Tag: "teachers", Listing: "teachers", Single: "teacher", IDKey: "teacherId",
		Writable: true,
		Columns: []column{
			{Name: "id", Type: "bigint", ReadOnly: true},
			{Name: "name", Type: "varchar(50)", Required: true},
			{Name: "title", Type: "varchar(100)"},
			{Name: "department", Type: "varchar(50)"},
			{Name: "avatar_url", Type: "varchar(255)"},
			{Name: "introduction", Type: "text"},
			{Name: "order_num", Type: "integer"},
			{Name: "created_at", Type: "datetime", ReadOnly: true},
		},
	},
	{
		Name: "Download", Path: "downloads", Tag: "downloads", Listing: "downloads", Single: "download", IDKey: "downloadId",
		Columns: []column{
			{Name: "id", Type: "bigint", ReadOnly: true},
			{Name: "title", Type: "varchar(255)"},
			{Name: "description", Type: "text"},
			{Name: "category", Type: "varchar(50)"},
			{Name: "file_name", Type: "varchar(255)", ReadOnly: true},
			{Name: "file_type", Type: "varchar(100)", ReadOnly: true},
			{Name: "file_size", Type: "bigint", ReadOnly: true},
			{Name: "download_count", Type: "bigint", ReadOnly: true},
			{Name: "upload_date", Type: "datetime", ReadOnly: true},
		},
	},
}

var (
	adminColumns = []column{
		{Name: "id", Type: "bigint", ReadOnly: true},
		{Name: "username", Type: "varchar(50)"},
		{Name: "name", Type: "varchar(100)"},
		{Name: "email", Type: "varchar(255)"},
	}
	activityColumns = []column{
		{Name: "id", Type: "bigint", ReadOnly: true},
		{Name: "user_id", Type: "bigint", Nullable: true, ReadOnly: true},
		{Name: "type", Type: "varchar(50)", Required: true},
		{Name: "description", Type: "text", Required: true},
		{Name: "created_at", Type: "datetime", ReadOnly: true},
	}
	settingColumns = []column{
		{Name: "id", Type: "bigint", ReadOnly: true},
		{Name: "key", Type: "varchar(50)"},
		{Name: "value", Type: "text"},
		{Name: "description", Type: "varchar(255)"},
		{Name: "created_at", Type: "datetime", ReadOnly: true},
		{Name: "updated_at", Type: "datetime", ReadOnly: true},
	}
)

// Generate builds the OpenAPI 3 document describing the schoolcms REST API.
// baseURL may be empty, in which case no servers entry is emitted.
func Generate(version, baseURL string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "schoolcms API",
			Description: "Content management API for the school website: news, slides, teachers, downloads, settings, admin sessions and the activity log.",
			Version:     version,
		},
	}
	if baseURL != "" {
		doc.Servers = openapi3.Servers{{URL: baseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}

	doc.Components.Schemas["ErrorResponse"] = objectSchema(map[string]*openapi3.Schema{
		"code":    {Type: &openapi3.Types{"integer"}, Format: "int32"},
		"message": {Type: &openapi3.Types{"string"}},
	})
	doc.Components.Schemas["MessageResponse"] = objectSchema(map[string]*openapi3.Schema{
		"success": {Type: &openapi3.Types{"boolean"}},
		"message": {Type: &openapi3.Types{"string"}},
	})
	doc.Components.Schemas["Pagination"] = objectSchema(map[string]*openapi3.Schema{
		"total":      {Type: &openapi3.Types{"integer"}, Format: "int64"},
		"page":       {Type: &openapi3.Types{"integer"}, Format: "int32"},
		"limit":      {Type: &openapi3.Types{"integer"}, Format: "int32"},
		"totalPages": {Type: &openapi3.Types{"integer"}, Format: "int32"},
	})
	doc.Components.Schemas["Admin"] = columnsToSchema(adminColumns)
	doc.Components.Schemas["Activity"] = columnsToSchema(activityColumns)
	doc.Components.Schemas["Setting"] = columnsToSchema(settingColumns)

	doc.Paths = openapi3.NewPaths()
	addAuthPaths(doc)
	addActivityPaths(doc)
	for _, res := range resources {
		addResourcePaths(doc, res)
	}
	addDownloadFilePaths(doc)
	addSettingPaths(doc)
	addMiscPaths(doc)

	return doc
}

// ─── Path Builders ──────────────────────────────────────────────────────────

func addAuthPaths(doc *openapi3.T) {
	loginReq := objectSchema(map[string]*openapi3.Schema{
		"username": openapi3.NewStringSchema(),
		"password": openapi3.NewStringSchema(),
	})
	loginReq.Value.Required = []string{"username", "password"}

	loginResp := objectSchema(map[string]*openapi3.Schema{
		"token": openapi3.NewStringSchema(),
	})
	loginResp.Value.Properties["admin"] = ref("Admin")

	doc.Paths.Set("/api/auth/login", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Log in as an administrator",
			Description: "Returns a bearer token valid for 24 hours. Rate limited per client IP.",
			OperationID: "login",
			RequestBody: jsonBody("Credentials", loginReq),
			Responses:   newResponses("200", "Token and admin profile", loginResp),
		},
	})

	meResp := &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: openapi3.Schemas{"admin": ref("Admin")},
	}}
	doc.Paths.Set("/api/auth/me", &openapi3.PathItem{
		Get: secured(&openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Get the authenticated administrator",
			OperationID: "get_me",
			Responses:   newResponses("200", "Admin profile", meResp),
		}),
	})

	pwReq := objectSchema(map[string]*openapi3.Schema{
		"currentPassword": openapi3.NewStringSchema(),
		"newPassword":     openapi3.NewStringSchema(),
	})
	pwReq.Value.Required = []string{"currentPassword", "newPassword"}
	doc.Paths.Set("/api/auth/password", &openapi3.PathItem{
		Put: secured(&openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Change the authenticated administrator's password",
			Description: "Tokens issued before the change stay valid until they expire.",
			OperationID: "change_password",
			RequestBody: jsonBody("Current and new password", pwReq),
			Responses:   newResponses("200", "Password changed", ref("MessageResponse")),
		}),
	})
}

func addActivityPaths(doc *openapi3.T) {
	listResp := listResponse("activities", "Activity", true)

	createResp := columnsToSchema(activityColumns)
	createResp.Value.Properties = openapi3.Schemas{
		"id":          createResp.Value.Properties["id"],
		"type":        createResp.Value.Properties["type"],
		"description": createResp.Value.Properties["description"],
		"created_at":  createResp.Value.Properties["created_at"],
	}

	doc.Paths.Set("/api/activities", &openapi3.PathItem{
		Get: secured(&openapi3.Operation{
			Tags:        []string{"activities"},
			Summary:     "List activity records, newest first",
			OperationID: "list_activities",
			Parameters:  pageParameters(),
			Responses:   newResponses("200", "One page of activities", listResp),
		}),
		Post: secured(&openapi3.Operation{
			Tags:        []string{"activities"},
			Summary:     "Append an activity record",
			OperationID: "create_activity",
			RequestBody: jsonBody("Activity", columnsToRequestSchema(activityColumns)),
			Responses:   newResponses("201", "Created activity", createResp),
		}),
	})
	doc.Paths.Set("/api/activities/clear", &openapi3.PathItem{
		Delete: secured(&openapi3.Operation{
			Tags:        []string{"activities"},
			Summary:     "Delete every activity record",
			OperationID: "clear_activities",
			Responses:   newResponses("200", "Log cleared", ref("MessageResponse")),
		}),
	})
}

// addResourcePaths generates the list, get and (for writable resources)
// create, update and delete operations of one content type.
func addResourcePaths(doc *openapi3.T, res resource) {
	doc.Components.Schemas[res.Name] = columnsToSchema(res.Columns)
	base := "/api/" + res.Path
	itemPath := base + "/{id}"

	var params openapi3.Parameters
	if res.Paged {
		params = pageParameters()
	}
	if res.Path == "downloads" {
		params = append(params, &openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("category").
				WithDescription("Only return files in this category.").
				WithSchema(openapi3.NewStringSchema()),
		})
	}

	collection := &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{res.Tag},
			Summary:     fmt.Sprintf("List %s", res.Path),
			OperationID: "list_" + res.Path,
			Parameters:  params,
			Responses:   newResponses("200", fmt.Sprintf("List of %s", res.Path), listResponse(res.Listing, res.Name, res.Paged)),
		},
	}

	singleResp := &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: openapi3.Schemas{res.Single: ref(res.Name)},
	}}
	item := &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParameter()},
		Get: &openapi3.Operation{
			Tags:        []string{res.Tag},
			Summary:     fmt.Sprintf("Get one %s record", res.Single),
			OperationID: "get_" + res.Single,
			Responses:   newResponses("200", capitalize(res.Single), singleResp),
		},
	}

	if res.Writable {
		createResp := objectSchema(map[string]*openapi3.Schema{
			"success": {Type: &openapi3.Types{"boolean"}},
			"message": openapi3.NewStringSchema(),
			res.IDKey: {Type: &openapi3.Types{"integer"}, Format: "int64"},
		})
		collection.Post = secured(&openapi3.Operation{
			Tags:        []string{res.Tag},
			Summary:     fmt.Sprintf("Create a %s record", res.Single),
			OperationID: "create_" + res.Single,
			RequestBody: jsonBody(capitalize(res.Single), columnsToRequestSchema(res.Columns)),
			Responses:   newResponses("200", "Created", createResp),
		})
		item.Put = secured(&openapi3.Operation{
			Tags:        []string{res.Tag},
			Summary:     fmt.Sprintf("Update a %s record", res.Single),
			OperationID: "update_" + res.Single,
			RequestBody: jsonBody(capitalize(res.Single), columnsToRequestSchema(res.Columns)),
			Responses:   newResponses("200", "Updated", ref("MessageResponse")),
		})
	}
	if res.Writable || res.Path == "downloads" {
		item.Delete = secured(&openapi3.Operation{
			Tags:        []string{res.Tag},
			Summary:     fmt.Sprintf("Delete a %s record", res.Single),
			OperationID: "delete_" + res.Single,
			Responses:   newResponses("200", "Deleted", ref("MessageResponse")),
		})
	}

	doc.Paths.Set(base, collection)
	doc.Paths.Set(itemPath, item)
}

func addDownloadFilePaths(doc *openapi3.T) {
	form := objectSchema(map[string]*openapi3.Schema{
		"file":        {Type: &openapi3.Types{"string"}, Format: "binary"},
		"title":       openapi3.NewStringSchema(),
		"description": openapi3.NewStringSchema(),
		"category":    openapi3.NewStringSchema(),
	})
	form.Value.Required = []string{"file"}

	created := objectSchema(map[string]*openapi3.Schema{
		"success":    {Type: &openapi3.Types{"boolean"}},
		"message":    openapi3.NewStringSchema(),
		"downloadId": {Type: &openapi3.Types{"integer"}, Format: "int64"},
	})

	item := doc.Paths.Value("/api/downloads")
	item.Post = secured(&openapi3.Operation{
		Tags:        []string{"downloads"},
		Summary:     "Publish a file",
		Description: "Accepts pdf, doc(x), xls(x), ppt(x), zip, rar and txt files.",
		OperationID: "create_download",
		RequestBody: multipartBody("File and metadata", form),
		Responses:   withStatus(newResponses("200", "Published", created), "413", "File too large"),
	})

	fileDesc := "File content"
	responses := openapi3.NewResponses()
	responses.Set("200", &openapi3.ResponseRef{Value: &openapi3.Response{
		Description: &fileDesc,
		Content: openapi3.Content{
			"application/octet-stream": &openapi3.MediaType{
				Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "binary"}},
			},
		},
	}})
	withStatus(responses, "404", "Not found")
	doc.Paths.Set("/api/downloads/{id}/file", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParameter()},
		Get: &openapi3.Operation{
			Tags:        []string{"downloads"},
			Summary:     "Download a file",
			Description: "Streams the file as an attachment and increments its download count.",
			OperationID: "download_file",
			Responses:   responses,
		},
	})
}

func addSettingPaths(doc *openapi3.T) {
	getResp := &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			"settings": stringMap(),
			"raw": &openapi3.SchemaRef{Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: ref("Setting"),
			}},
		},
	}}
	doc.Paths.Set("/api/settings", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"settings"},
			Summary:     "Get site settings",
			OperationID: "get_settings",
			Responses:   newResponses("200", "Settings as a map and as records", getResp),
		},
		Put: secured(&openapi3.Operation{
			Tags:        []string{"settings"},
			Summary:     "Update site settings",
			Description: "Upserts every key of the object in one transaction.",
			OperationID: "update_settings",
			RequestBody: jsonBody("Settings to write", stringMap()),
			Responses:   newResponses("200", "Settings saved", ref("MessageResponse")),
		}),
	})
}

func addMiscPaths(doc *openapi3.T) {
	form := objectSchema(map[string]*openapi3.Schema{
		"file": {Type: &openapi3.Types{"string"}, Format: "binary"},
	})
	form.Value.Required = []string{"file"}

	fileInfo := objectSchema(map[string]*openapi3.Schema{
		"filename":     openapi3.NewStringSchema(),
		"originalname": openapi3.NewStringSchema(),
		"mimetype":     openapi3.NewStringSchema(),
		"size":         {Type: &openapi3.Types{"integer"}, Format: "int64"},
		"url":          openapi3.NewStringSchema(),
	})
	uploadResp := objectSchema(map[string]*openapi3.Schema{
		"success": {Type: &openapi3.Types{"boolean"}},
		"message": openapi3.NewStringSchema(),
	})
	uploadResp.Value.Properties["file"] = fileInfo

	doc.Paths.Set("/api/upload", &openapi3.PathItem{
		Post: secured(&openapi3.Operation{
			Tags:        []string{"upload"},
			Summary:     "Upload an image",
			Description: "Accepts JPEG, PNG and GIF images. The returned url is served under /uploads/.",
			OperationID: "upload_image",
			RequestBody: multipartBody("Image file", form),
			Responses:   withStatus(newResponses("200", "Stored file", uploadResp), "413", "File too large"),
		}),
	})

	countResp := objectSchema(map[string]*openapi3.Schema{
		"count": {Type: &openapi3.Types{"integer"}, Format: "int64"},
	})
	doc.Paths.Set("/api/users/count", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"users"},
			Summary:     "Count administrator accounts",
			OperationID: "count_users",
			Responses:   newResponses("200", "Number of administrators", countResp),
		},
	})
}

// ─── Schema Builders ────────────────────────────────────────────────────────

// columnsToSchema converts columns to an OpenAPI object schema with every
// column as a property.
func columnsToSchema(columns []column) *openapi3.SchemaRef {
	props := openapi3.Schemas{}
	for _, col := range columns {
		s := columnTypeSchema(MapDBType(col.Type))
		s.Nullable = col.Nullable
		s.ReadOnly = col.ReadOnly
		props[col.Name] = &openapi3.SchemaRef{Value: s}
	}
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: props,
		},
	}
}

// columnsToRequestSchema generates the create/update body schema. Read-only
// columns are excluded.
func columnsToRequestSchema(columns []column) *openapi3.SchemaRef {
	props := openapi3.Schemas{}
	var required []string
	for _, col := range columns {
		if col.ReadOnly {
			continue
		}
		s := columnTypeSchema(MapDBType(col.Type))
		s.Nullable = col.Nullable
		props[col.Name] = &openapi3.SchemaRef{Value: s}
		if col.Required {
			required = append(required, col.Name)
		}
	}
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: props,
			Required:   required,
		},
	}
}

// columnTypeSchema creates a basic Schema for the given type mapping.
func columnTypeSchema(m TypeMapping) *openapi3.Schema {
	s := &openapi3.Schema{
		Type: &openapi3.Types{m.Type},
	}
	if m.Format != "" {
		s.Format = m.Format
	}
	if m.Type == "array" {
		s.Items = &openapi3.SchemaRef{Value: &openapi3.Schema{}}
	}
	return s
}

func objectSchema(props map[string]*openapi3.Schema) *openapi3.SchemaRef {
	schemas := openapi3.Schemas{}
	for name, s := range props {
		schemas[name] = &openapi3.SchemaRef{Value: s}
	}
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: schemas,
	}}
}

func stringMap() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:                 &openapi3.Types{"object"},
		AdditionalProperties: openapi3.AdditionalProperties{Schema: &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}},
	}}
}

// listResponse is {<key>: [<schema>], pagination?}.
func listResponse(key, schemaName string, paged bool) *openapi3.SchemaRef {
	props := openapi3.Schemas{
		key: &openapi3.SchemaRef{Value: &openapi3.Schema{
			Type:  &openapi3.Types{"array"},
			Items: ref(schemaName),
		}},
	}
	if paged {
		props["pagination"] = ref("Pagination")
	}
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
	}}
}

func ref(schemaName string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+schemaName, nil)
}

// ─── Operation Helpers ──────────────────────────────────────────────────────

// secured marks op as requiring an admin bearer token.
func secured(op *openapi3.Operation) *openapi3.Operation {
	op.Security = &openapi3.SecurityRequirements{{"bearerAuth": {}}}
	withStatus(op.Responses, "401", "Authentication required")
	withStatus(op.Responses, "403", "Token invalid or expired")
	return op
}

func jsonBody(description string, schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
		Description: description,
		Required:    true,
		Content:     openapi3.NewContentWithJSONSchemaRef(schema),
	}}
}

func multipartBody(description string, schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
		Description: description,
		Required:    true,
		Content: openapi3.Content{
			"multipart/form-data": &openapi3.MediaType{Schema: schema},
		},
	}}
}

func pageParameters() openapi3.Parameters {
	return openapi3.Parameters{
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("page").
				WithDescription("1-based page number (default 1).").
				WithSchema(&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}),
		},
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("limit").
				WithDescription("Records per page, 1 to 100 (default 10).").
				WithSchema(&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}),
		},
	}
}

func idParameter() *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter("id").
			WithDescription("Record id.").
			WithSchema(&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}),
	}
}

// newResponses builds a Responses map with a success response and the
// standard error responses.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})
	withStatus(responses, "400", "Bad request")
	withStatus(responses, "404", "Not found")
	withStatus(responses, "500", "Internal server error")
	return responses
}

// withStatus adds an error response using the shared ErrorResponse schema.
func withStatus(responses *openapi3.Responses, code, description string) *openapi3.Responses {
	desc := description
	responses.Set(code, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content:     openapi3.NewContentWithJSONSchemaRef(ref("ErrorResponse")),
		},
	})
	return responses
}

// capitalize returns a string with its first character uppercased.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
