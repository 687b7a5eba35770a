package generator

import (
	"errors"
	"slices"
	"testing"

	oasgen "github.com/erraggy/oastools/generator"
	"github.com/erraggy/oastools/oaserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/php-client-gen/pkg/ir"
	"github.com/blimu-dev/php-client-gen/pkg/openapi"
)

const petsDoc = `
openapi: 3.0.3
info:
  title: Pets API
  version: 1.2.0
servers:
  - url: https://api.example.com/v1
  - url: https://sandbox.example.com/v1
tags:
  - name: Manager:Pets
    description: |
      Manage the pets of the store.
      Second line is dropped.
paths:
  /pets/{petId}:
    get:
      operationId: getPet
      summary: Fetch a pet
      tags: [Manager:Pets, Resource:Pet]
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: string
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
components:
  schemas:
    Pet:
      type: object
      required: [id, name]
      properties:
        id:
          type: string
        name:
          type: string
`

func compileDoc(t *testing.T, src string, opts CompileOptions) (*ir.IR, error) {
	t.Helper()
	doc, err := openapi.Parse([]byte(src), "test.yaml")
	require.NoError(t, err)
	if opts.Namespace == "" {
		opts.Namespace = `Acme\Pets`
	}
	if opts.ClientName == "" {
		opts.ClientName = "Pets"
	}
	return Compile(doc, opts)
}

func mustCompile(t *testing.T, src string) *ir.IR {
	t.Helper()
	out, err := compileDoc(t, src, CompileOptions{})
	require.NoError(t, err)
	return out
}

func findClass(t *testing.T, classes []*ir.IRClass, name string) *ir.IRClass {
	t.Helper()
	for _, c := range classes {
		if c.ClassName == name {
			return c
		}
	}
	t.Fatalf("class %s not found", name)
	return nil
}

func findRoute(t *testing.T, cls *ir.IRClass, operationID string) *ir.IRRoute {
	t.Helper()
	r, ok := cls.Routes.Get(operationID)
	require.True(t, ok, "route %s not found in %s", operationID, cls.ClassName)
	return r
}

func propertyNames(props []*ir.IRProperty) []string {
	out := []string{}
	for _, p := range props {
		out = append(out, p.Name)
	}
	return out
}

func paramNames(params []ir.IRParam) []string {
	out := []string{}
	for _, p := range params {
		out = append(out, p.Name)
	}
	return out
}

func TestCompilePetsScenario(t *testing.T) {
	out := mustCompile(t, petsDoc)

	require.Len(t, out.Managers, 1)
	pets := out.Managers[0]
	assert.Equal(t, "Pets", pets.ClassName)
	assert.Equal(t, `Acme\Pets\Managers`, pets.Namespace)
	assert.Equal(t, "Manage the pets of the store.", pets.ClassPhpDocTitle)
	assert.Equal(t, []string{
		`Acme\Pets\PetsClient`,
		`Acme\Pets\Exceptions\ApiException`,
		`Acme\Pets\Exceptions\UnexpectedResponseException`,
		`Acme\Pets\Resources\Pet`,
	}, pets.Uses)

	route := findRoute(t, pets, "getPet")
	assert.Equal(t, "getPet", route.MethodName)
	assert.Equal(t, "GET", route.HTTPMethod)
	assert.Equal(t, "Fetch a pet", route.Summary)
	assert.Equal(t, "200", route.ExpectedResponseCode)
	assert.Equal(t, "Pet", route.ReturnType)
	assert.False(t, route.ReturnsArray)
	require.Len(t, route.PathParams, 1)
	assert.Equal(t, ir.IRBindArgument, route.PathParams[0].Binding.Kind)
	assert.Equal(t, []string{"petId"}, paramNames(route.DefinitionParams))

	assert.Equal(t, &ir.IRConstruct{
		Type: "Pet",
		Args: []ir.IRExpr{
			&ir.IRFieldAccess{Source: ir.BodySource(), Path: []string{"id"}, Required: true},
			&ir.IRFieldAccess{Source: ir.BodySource(), Path: []string{"name"}, Required: true},
		},
	}, route.ResponseExpression)

	require.Len(t, out.Resources, 1)
	pet := out.Resources[0]
	assert.Equal(t, "Pet", pet.ClassName)
	assert.Equal(t, `Acme\Pets\Resources`, pet.Namespace)
	assert.Equal(t, []string{"id", "name"}, propertyNames(pet.Properties))

	own := findRoute(t, pet, "getPet")
	require.Len(t, own.PathParams, 1)
	assert.Equal(t, ir.IRBinding{Kind: ir.IRBindOwnID, Property: "id"}, own.PathParams[0].Binding)
	assert.Empty(t, own.DefinitionParams)

	assert.Equal(t, "PetsClient", out.Client.ClassName)
	assert.Equal(t, "https://api.example.com/v1", out.Client.APIBaseURL)
	assert.Equal(t, ir.IRInfo{Title: "Pets API", Version: "1.2.0"}, out.Client.Info)
	assert.False(t, out.Client.UseBearerToken)
	assert.Equal(t, out.Managers, out.Client.Managers)

	require.Len(t, out.Exceptions, 2)
	assert.Equal(t, "ApiException", out.Exceptions[0].ClassName)
	assert.Equal(t, `\Exception`, out.Exceptions[0].Parent)
	assert.Equal(t, "UnexpectedResponseException", out.Exceptions[1].ClassName)
	assert.Equal(t, "ApiException", out.Exceptions[1].Parent)
}

func TestCompileDefaultBaseURLOverridesServers(t *testing.T) {
	out, err := compileDoc(t, petsDoc, CompileOptions{DefaultBaseURL: "http://localhost:8080"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", out.Client.APIBaseURL)
}

func TestParseClassTag(t *testing.T) {
	tests := []struct {
		tag   string
		ok    bool
		kind  ir.IRClassKind
		value string
	}{
		{tag: "Manager:Users", ok: true, kind: ir.IRClassManager, value: "Users"},
		{tag: "Resource:Invoice", ok: true, kind: ir.IRClassResource, value: "Invoice"},
		{tag: "Tag"},
		{tag: "A:B:C"},
		{tag: "Manager:"},
		{tag: ":Users"},
		{tag: "manager:Users"},
		{tag: "Service:Users"},
		{tag: "Manager:Users:Extra"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, ok := parseClassTag(tt.tag)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.kind, got.Kind)
				assert.Equal(t, tt.value, got.Value)
				assert.Equal(t, tt.tag, got.Raw)
			}
		})
	}
}

func TestClassifyGroupsTagsCaseInsensitively(t *testing.T) {
	out := mustCompile(t, `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /a:
    get:
      operationId: listA
      tags: [Manager:users]
      responses:
        "204": {description: none}
  /b:
    get:
      operationId: listB
      tags: [Manager:Users, Users, A:B:C]
      responses:
        "204": {description: none}
  /c:
    get:
      operationId: untagged
      tags: [Users]
      responses:
        "204": {description: none}
`)
	require.Len(t, out.Managers, 1)
	users := out.Managers[0]
	assert.Equal(t, "Users", users.ClassName)
	assert.Equal(t, []string{"listA", "listB"}, slices.Collect(users.Routes.Keys()))

	var skipped []string
	for _, issue := range out.Issues {
		if issue.Field == "tags" {
			skipped = append(skipped, issue.Path)
		}
	}
	assert.Equal(t, []string{"paths./c.get"}, skipped)
}

func TestManagerUsesOnlyFirstResourceTag(t *testing.T) {
	out := mustCompile(t, `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /pets:
    post:
      operationId: createPet
      tags: [Manager:Pets, Resource:Pet, Resource:Owner]
      responses:
        "204": {description: created}
components:
  schemas:
    Pet:
      type: object
      properties:
        id: {type: string}
`)
	pets := findClass(t, out.Managers, "Pets")
	assert.Contains(t, pets.Uses, `Acme\Pets\Resources\Pet`)
	assert.NotContains(t, pets.Uses, `Acme\Pets\Resources\Owner`)

	owner := findClass(t, out.Resources, "Owner")
	assert.Empty(t, owner.Properties)
	assert.Equal(t, []string{"createPet"}, slices.Collect(owner.Routes.Keys()))

	pet := findClass(t, out.Resources, "Pet")
	assert.Equal(t, []string{"id"}, propertyNames(pet.Properties))
}

func TestDuplicateOperationID(t *testing.T) {
	src := `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /pets:
    get:
      operationId: listPets
      tags: [Manager:Pets]
      responses:
        "204": {description: none}
  /animals:
    get:
      operationId: other
      tags: [Manager:Pets]
      responses:
        "204": {description: none}
  /v2/pets:
    get:
      operationId: listPets
      tags: [Manager:Pets]
      responses:
        "204": {description: none}
`
	t.Run("last write wins", func(t *testing.T) {
		out, err := compileDoc(t, src, CompileOptions{})
		require.NoError(t, err)
		pets := findClass(t, out.Managers, "Pets")
		assert.Equal(t, []string{"listPets", "other"}, slices.Collect(pets.Routes.Keys()))
		assert.Equal(t, "/v2/pets", findRoute(t, pets, "listPets").Path)

		var warned bool
		for _, issue := range out.Issues {
			if issue.Field == "operationId" && issue.Severity == oasgen.SeverityWarning {
				warned = true
			}
		}
		assert.True(t, warned)
	})

	t.Run("strict", func(t *testing.T) {
		out, err := compileDoc(t, src, CompileOptions{StrictOperationIDs: true})
		require.Error(t, err)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, ErrDuplicateOperationID)
		assert.ErrorIs(t, err, oaserrors.ErrValidation)

		var dup *DuplicateOperationIdError
		require.True(t, errors.As(err, &dup))
		assert.Equal(t, "Pets", dup.Class)
		assert.Equal(t, "GET /pets", dup.First)

		var opErr *OperationError
		require.True(t, errors.As(err, &opErr))
		assert.Equal(t, "/v2/pets", opErr.Path)
	})
}

func TestRequestBodyReferenceIsFatal(t *testing.T) {
	_, err := compileDoc(t, `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /pets:
    post:
      operationId: createPet
      tags: [Manager:Pets]
      requestBody:
        $ref: '#/components/requestBodies/NewPet'
      responses:
        "204": {description: none}
components:
  requestBodies:
    NewPet:
      content:
        application/json:
          schema:
            type: object
`, CompileOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedRequestBody)

	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "POST", opErr.Method)
	assert.Equal(t, "/pets", opErr.Path)
	assert.Equal(t, "createPet", opErr.OperationID)
	assert.Contains(t, err.Error(), "POST /pets (createPet)")
}

func TestUnresolvableReferenceAbortsWithOperationContext(t *testing.T) {
	_, err := compileDoc(t, `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /pets:
    get:
      operationId: listPets
      tags: [Manager:Pets]
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Missing'
components:
  schemas: {}
`, CompileOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, openapi.ErrReferenceNotFound)
	assert.ErrorIs(t, err, oaserrors.ErrReference)
	assert.Contains(t, err.Error(), "GET /pets")
	assert.Contains(t, err.Error(), "schemas/Missing")
}

func TestInvalidTagFilter(t *testing.T) {
	_, err := compileDoc(t, petsDoc, CompileOptions{IncludeTags: []string{"("}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "includeTags")
}

func TestTagFiltersApplyBeforeClassification(t *testing.T) {
	out, err := compileDoc(t, `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /users:
    get:
      operationId: listUsers
      tags: [Manager:Users]
      responses:
        "204": {description: none}
  /admin:
    get:
      operationId: listAdmins
      tags: [Manager:Admins, internal]
      responses:
        "204": {description: none}
`, CompileOptions{ExcludeTags: []string{"^internal$"}})
	require.NoError(t, err)
	require.Len(t, out.Managers, 1)
	assert.Equal(t, "Users", out.Managers[0].ClassName)
}

func TestDerivedOperationID(t *testing.T) {
	out := mustCompile(t, `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /pets/{petId}:
    delete:
      tags: [Manager:Pets]
      parameters:
        - {name: petId, in: path, required: true, schema: {type: string}}
      responses:
        "204": {description: none}
`)
	pets := findClass(t, out.Managers, "Pets")
	route := findRoute(t, pets, "deletePetsPetId")
	assert.Equal(t, "DELETE", route.HTTPMethod)

	var info bool
	for _, issue := range out.Issues {
		if issue.Field == "operationId" && issue.Severity == oasgen.SeverityInfo {
			info = true
		}
	}
	assert.True(t, info)
}

func TestSecuritySchemes(t *testing.T) {
	out := mustCompile(t, `
openapi: 3.0.3
info: {title: t, version: "1"}
paths: {}
components:
  securitySchemes:
    apiKey:
      type: apiKey
      in: header
      name: X-Api-Key
    bearerAuth:
      type: http
      scheme: Bearer
      bearerFormat: JWT
`)
	require.Len(t, out.Client.SecuritySchemes, 2)
	assert.Equal(t, ir.IRSecurityScheme{Key: "apiKey", Type: "apiKey", In: "header", Name: "X-Api-Key"}, out.Client.SecuritySchemes[0])
	assert.Equal(t, "bearerAuth", out.Client.SecuritySchemes[1].Key)
	assert.True(t, out.Client.UseBearerToken)
	assert.Empty(t, out.Managers)
	assert.Empty(t, out.Resources)
}

func TestCollidingSchemaNamesGetDistinctClasses(t *testing.T) {
	out := mustCompile(t, `
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /pets/current:
    get:
      operationId: currentPet
      tags: [Manager:Shop]
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
  /legacy-pets:
    get:
      operationId: listLegacyPets
      tags: [Manager:Pets]
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/pet'
components:
  schemas:
    Pet:
      type: object
      properties:
        id: {type: string}
        name: {type: string}
    pet:
      type: object
      properties:
        legacy_id: {type: integer}
`)
	var names []string
	for _, r := range out.Resources {
		names = append(names, r.ClassName)
	}
	assert.ElementsMatch(t, []string{"Pet", "Pet2"}, names)
	assert.Equal(t, map[string]string{"pet": "Pet2"}, out.EntityClasses)
	assert.Equal(t, "Pet2", out.EntityClassName("pet"))
	assert.Equal(t, "Pet", out.EntityClassName("Pet"))

	legacy := findClass(t, out.Resources, "Pet2")
	assert.Equal(t, []string{"legacy_id"}, propertyNames(legacy.Properties))

	pets := findClass(t, out.Managers, "Pets")
	assert.Contains(t, pets.Uses, `Acme\Pets\Resources\Pet2`)
	assert.NotContains(t, pets.Uses, `Acme\Pets\Resources\Pet`)
	assert.Contains(t, findClass(t, out.Managers, "Shop").Uses, `Acme\Pets\Resources\Pet`)

	warned := false
	for _, issue := range out.Issues {
		if issue.Severity == oasgen.SeverityWarning && issue.Path == "components.schemas.pet" {
			warned = true
		}
	}
	assert.True(t, warned)
}
