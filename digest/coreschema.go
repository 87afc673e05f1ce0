package digest

import "github.com/F5Networks/f5-appsvcs-extension-sub010/schema"

// CoreSchemaID identifies the embedded core declaration schema.
const CoreSchemaID = "urn:adc:schema:core"

// coreSchemaYAML is the embedded core schema: the ADC/Tenant/Application
// nesting, the common item surface, and the reference shapes that carry
// post-process instructions. Product schemas register additional
// documents on top of it.
const coreSchemaYAML = `
$id: urn:adc:schema:core
type: object
required:
  - class
  - id
properties:
  class:
    const: ADC
  id:
    type: string
  label:
    type: string
  schemaVersion:
    type: string
    pattern: '^3\.[0-9]+(\.[0-9]+)?$'
  updateMode:
    type: string
    enum:
      - selective
      - complete
    default: selective
  scratch:
    type: boolean
  controls:
    type: object
additionalProperties:
  $ref: '#/definitions/Tenant'
definitions:
  Tenant:
    type: object
    required:
      - class
    properties:
      class:
        const: Tenant
      label:
        type: string
      enable:
        type: boolean
        default: true
      defaultRouteDomain:
        type: integer
        minimum: 0
        default: 0
    additionalProperties:
      $ref: '#/definitions/Application'
  Application:
    type: object
    required:
      - class
    properties:
      class:
        const: Application
      label:
        type: string
      enable:
        type: boolean
        default: true
      template:
        type: string
        enum:
          - generic
          - http
          - https
          - tcp
          - udp
          - l4
          - shared
        default: generic
    additionalProperties:
      $ref: '#/definitions/Item'
  Item:
    type: object
    required:
      - class
    properties:
      class:
        type: string
        format: f5name
      label:
        type: string
      remark:
        type: string
      enable:
        type: boolean
        default: true
      virtualPort:
        type: integer
        minimum: 0
        maximum: 65535
      virtualAddresses:
        type: array
        minItems: 1
      snat:
        default: auto
      redirect80:
        type: boolean
        default: true
      pool:
        $ref: '#/definitions/PoolReference'
      serverTLS:
        $ref: '#/definitions/TLSServerReference'
      clientTLS:
        $ref: '#/definitions/TLSClientReference'
      passphrase:
        $ref: '#/definitions/Secret'
      iRule:
        $ref: '#/definitions/Resource'
      members:
        type: array
      monitors:
        type: array
    additionalProperties: true
  PoolReference:
    anyOf:
      - type: string
        format: f5pointer
        postProcess:
          tag: pointer
          class: Pool
      - $ref: '#/definitions/UseOrBigip'
  TLSServerReference:
    anyOf:
      - type: string
        format: f5pointer
        postProcess:
          tag: pointer
          class: TLS_Server
      - $ref: '#/definitions/UseOrBigip'
  TLSClientReference:
    anyOf:
      - type: string
        format: f5pointer
        postProcess:
          tag: pointer
          class: TLS_Client
      - $ref: '#/definitions/UseOrBigip'
  UseOrBigip:
    type: object
    properties:
      use:
        type: string
        format: f5pointer
        postProcess:
          tag: pointer
      bigip:
        type: string
        postProcess:
          tag: bigComponent
  Secret:
    anyOf:
      - type: string
        postProcess:
          tag: secret
      - type: object
        properties:
          ciphertext:
            type: string
            format: f5base64
          protected:
            type: string
            format: f5base64
          miniJWE:
            type: boolean
            default: true
  Resource:
    anyOf:
      - type: string
      - type: object
        required:
          - url
        properties:
          url:
            type: string
            format: uri
            postProcess:
              tag: fetch
`

// DefaultValidator builds a validator with only the core schema
// registered and compiled.
func DefaultValidator() (*schema.Validator, error) {
	v, err := schema.New()
	if err != nil {
		return nil, err
	}
	if err := v.RegisterBytes([]byte(coreSchemaYAML)); err != nil {
		return nil, err
	}
	if err := v.Compile(); err != nil {
		return nil, err
	}
	return v, nil
}
