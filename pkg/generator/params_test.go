package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/php-client-gen/pkg/ir"
)

const invoiceDoc = `
openapi: 3.0.3
info: {title: Billing, version: "1"}
paths:
  /customers/{customerId}/invoices/{invoiceId}:
    get:
      operationId: getInvoice
      tags: [Resource:Invoice, Manager:Invoices]
      parameters:
        - {name: customerId, in: path, required: true, schema: {type: string}}
        - {name: invoiceId, in: path, required: true, schema: {type: string}}
        - {name: X-Trace, in: header, schema: {type: string}}
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Invoice'
  /accounts/{accountId}/invoices/{number}/lines/{lineId}:
    get:
      operationId: listLines
      tags: [Resource:Invoice]
      parameters:
        - {name: accountId, in: path, required: true, schema: {type: string}}
        - {name: number, in: path, required: true, schema: {type: integer}}
        - {name: lineId, in: path, required: true, schema: {type: string}}
        - {name: currency, in: query, schema: {type: string}}
      responses:
        "204": {description: none}
components:
  schemas:
    Account:
      type: object
      required: [id]
      properties:
        id: {type: string}
    Invoice:
      type: object
      required: [id, customer_id]
      properties:
        id: {type: string}
        customer_id: {type: string}
        number: {type: integer}
        currency: {type: string}
        account:
          $ref: '#/components/schemas/Account'
`

func TestPathParameterBindingPriority(t *testing.T) {
	out := mustCompile(t, invoiceDoc)
	invoice := findClass(t, out.Resources, "Invoice")

	route := findRoute(t, invoice, "getInvoice")
	require.Len(t, route.PathParams, 2, "header parameters are dropped")

	customerID, ok := ir.Param(route.PathParams, "customerId")
	require.True(t, ok)
	assert.Equal(t, ir.IRBinding{Kind: ir.IRBindProperty, Property: "customer_id"}, customerID.Binding)

	invoiceID, ok := ir.Param(route.PathParams, "invoiceId")
	require.True(t, ok)
	assert.Equal(t, ir.IRBinding{Kind: ir.IRBindOwnID, Property: "id"}, invoiceID.Binding)

	assert.Empty(t, route.DefinitionParams)

	lines := findRoute(t, invoice, "listLines")
	account, _ := ir.Param(lines.PathParams, "accountId")
	assert.Equal(t, ir.IRBinding{Kind: ir.IRBindProperty, Property: "account", Field: "id"}, account.Binding)
	number, _ := ir.Param(lines.PathParams, "number")
	assert.Equal(t, ir.IRBinding{Kind: ir.IRBindProperty, Property: "number"}, number.Binding)
	line, _ := ir.Param(lines.PathParams, "lineId")
	assert.Equal(t, ir.IRBindArgument, line.Binding.Kind)

	// bound query parameters stay in the signature as optional overrides
	currency, _ := ir.Param(lines.QueryParams, "currency")
	assert.Equal(t, ir.IRBinding{Kind: ir.IRBindProperty, Property: "currency"}, currency.Binding)
	assert.Equal(t, []string{"lineId", "currency"}, paramNames(lines.DefinitionParams))

	t.Run("entity property without id stays an argument", func(t *testing.T) {
		out := mustCompile(t, `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /owners/{ownerId}/pets:
    get:
      operationId: listOwnerPets
      tags: [Resource:Pet]
      parameters:
        - {name: ownerId, in: path, required: true, schema: {type: string}}
      responses:
        "204": {description: none}
components:
  schemas:
    Owner:
      type: object
      properties:
        uuid: {type: string}
    Pet:
      type: object
      required: [id]
      properties:
        id: {type: string}
        owner:
          $ref: '#/components/schemas/Owner'
`)
		route := findRoute(t, findClass(t, out.Resources, "Pet"), "listOwnerPets")
		owner, ok := ir.Param(route.PathParams, "ownerId")
		require.True(t, ok)
		assert.Equal(t, ir.IRBinding{Kind: ir.IRBindArgument}, owner.Binding)
		assert.Equal(t, []string{"ownerId"}, paramNames(route.DefinitionParams))
	})
}

func TestManagerMethodsTakeEveryParameterAsArgument(t *testing.T) {
	out := mustCompile(t, invoiceDoc)
	invoices := findClass(t, out.Managers, "Invoices")
	route := findRoute(t, invoices, "getInvoice")
	for _, p := range route.PathParams {
		assert.Equal(t, ir.IRBindArgument, p.Binding.Kind, p.Name)
	}
	assert.Equal(t, []string{"customerId", "invoiceId"}, paramNames(route.DefinitionParams))
}

func TestBindWithoutIDProperty(t *testing.T) {
	entities := ir.NewEntityRegistry()
	tagOnly := entities.Ensure("Report")
	tagOnly.AddProperty(&ir.IRProperty{Name: "title", Type: "string"})

	pc := paramContext{kind: ir.IRClassResource, className: "Report", entity: tagOnly, entities: entities}
	assert.Equal(t, ir.IRBindArgument, pc.bind("reportId").Kind)
	assert.Equal(t, ir.IRBindProperty, pc.bind("title").Kind)

	noEntity := paramContext{kind: ir.IRClassResource, className: "Report", entities: entities}
	assert.Equal(t, ir.IRBindArgument, noEntity.bind("title").Kind)
}

func TestParameterOrdering(t *testing.T) {
	out := mustCompile(t, `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /stores/{storeId}/pets:
    parameters:
      - {name: storeId, in: path, required: true, schema: {type: string}}
      - {name: limit, in: query, description: shared, schema: {type: integer}}
    post:
      operationId: createPet
      tags: [Manager:Pets]
      parameters:
        - {name: dryRun, in: query, schema: {type: boolean}}
        - {name: limit, in: query, required: true, schema: {type: integer}}
        - {name: q, in: query, required: true, schema: {type: string}}
        - {name: session, in: cookie, schema: {type: string}}
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [name, age]
              properties:
                tag: {type: string}
                age: {type: integer, format: int32}
                name: {type: string}
                toys:
                  type: array
                  items: {type: string}
          application/xml:
            schema:
              type: object
              properties:
                ignored: {type: string}
      responses:
        "204": {description: none}
`)
	route := findRoute(t, findClass(t, out.Managers, "Pets"), "createPet")

	assert.Equal(t, []string{"storeId"}, paramNames(route.PathParams))
	assert.Equal(t, []string{"limit", "q", "dryRun"}, paramNames(route.QueryParams))
	limit, _ := ir.Param(route.QueryParams, "limit")
	assert.True(t, limit.Required)
	assert.Empty(t, limit.Description, "operation parameters replace path item parameters")

	assert.Equal(t, "application/json", route.BodyContentType)
	assert.Equal(t, []string{"name", "age", "tag", "toys"}, paramNames(route.BodyParams))
	age, _ := ir.Param(route.BodyParams, "age")
	assert.Equal(t, "integer", age.Type)
	assert.Equal(t, "int32", age.Format)
	toys, _ := ir.Param(route.BodyParams, "toys")
	assert.Equal(t, "array", toys.Type)
	assert.Equal(t, "string", toys.Items)

	assert.Equal(t,
		[]string{"storeId", "limit", "q", "name", "age", "dryRun", "tag", "toys"},
		paramNames(route.DefinitionParams))
}

func TestBodyFromReferencedSchemaWithAllOf(t *testing.T) {
	out := mustCompile(t, `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /pets:
    post:
      operationId: createPet
      tags: [Manager:Pets]
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/NewDog'
      responses:
        "204": {description: none}
components:
  schemas:
    NewPet:
      type: object
      required: [name]
      properties:
        name: {type: string}
    NewDog:
      allOf:
        - $ref: '#/components/schemas/NewPet'
        - type: object
          properties:
            breed: {type: string}
`)
	route := findRoute(t, findClass(t, out.Managers, "Pets"), "createPet")
	assert.Equal(t, []string{"name", "breed"}, paramNames(route.BodyParams))
	assert.True(t, route.BodyParams[0].Required)
	assert.False(t, route.BodyParams[1].Required)
}

func TestBodyWithoutPropertiesIsOneParameter(t *testing.T) {
	out := mustCompile(t, `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /tags:
    put:
      operationId: replaceTags
      tags: [Manager:Tags]
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: array
              items: {type: string}
      responses:
        "204": {description: none}
`)
	route := findRoute(t, findClass(t, out.Managers, "Tags"), "replaceTags")
	require.Len(t, route.BodyParams, 1)
	body := route.BodyParams[0]
	assert.True(t, body.IsWholeBody())
	assert.Equal(t, "body", body.VarName)
	assert.True(t, body.Required)
	assert.Equal(t, "array", body.Type)
	assert.Equal(t, "string", body.Items)
}

func TestUndeclaredPathPlaceholders(t *testing.T) {
	out := mustCompile(t, `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /orgs/{org}/repos/{repo}:
    get:
      operationId: getRepo
      tags: [Manager:Repos]
      parameters:
        - {name: repo, in: path, required: true, schema: {type: string}}
      responses:
        "204": {description: none}
`)
	route := findRoute(t, findClass(t, out.Managers, "Repos"), "getRepo")
	assert.Equal(t, []string{"repo", "org"}, paramNames(route.PathParams))
	org := route.PathParams[1]
	assert.True(t, org.Required)
	assert.Equal(t, "string", org.Type)
}

func TestDefinitionParamsResolveNameCollisions(t *testing.T) {
	params := definitionParams(ir.IRClassManager,
		[]ir.IRParam{{Name: "id", VarName: "id", In: ir.IRParamPath, Required: true}},
		nil,
		[]ir.IRParam{{Name: "id", VarName: "id", In: ir.IRParamBody, Required: true}},
	)
	require.Len(t, params, 2)
	assert.Equal(t, "id", params[0].VarName)
	assert.Equal(t, "bodyId", params[1].VarName)
}

func TestRequiredFirst(t *testing.T) {
	in := []ir.IRParam{
		{Name: "a"}, {Name: "b", Required: true}, {Name: "c"},
		{Name: "d", Required: true}, {Name: "e"},
	}
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, paramNames(requiredFirst(in)))
	assert.Empty(t, requiredFirst(nil))
}
